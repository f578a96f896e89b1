package kafka

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/segmentio/kafka-go"

	"argus/pkg/errors"
	"argus/pkg/logger"
)

// Producer publishes JSON events, one lazily created writer per topic.
// Pipeline runs and workers publish concurrently, so the writer map is
// guarded.
type Producer struct {
	mu      sync.RWMutex
	writers map[string]*kafka.Writer
	brokers []string
	async   bool
	log     *logger.Logger
}

// ProducerConfig holds producer configuration
type ProducerConfig struct {
	Brokers []string
	// Async trades delivery confirmation for throughput. Alerts stay
	// synchronous so a failed publish surfaces in the run stats.
	Async bool
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig) *Producer {
	return &Producer{
		writers: make(map[string]*kafka.Writer),
		brokers: cfg.Brokers,
		async:   cfg.Async,
		log:     logger.Get().With("component", "kafka_producer"),
	}
}

// getWriter returns or creates a writer for a topic
func (p *Producer) getWriter(topic string) *kafka.Writer {
	p.mu.RLock()
	w, ok := p.writers[topic]
	p.mu.RUnlock()
	if ok {
		return w
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if w, ok := p.writers[topic]; ok {
		return w
	}

	w = &kafka.Writer{
		Addr:     kafka.TCP(p.brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
		Async:    p.async,
	}
	p.writers[topic] = w
	return w
}

// Publish marshals the event to JSON and sends it to the topic
func (p *Producer) Publish(ctx context.Context, topic string, key string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.getWriter(topic).WriteMessages(ctx, msg); err != nil {
		p.log.Errorf("Failed to publish to %s: %v", topic, err)
		return err
	}

	p.log.Debugf("Published to %s: %s", topic, key)
	return nil
}

// Close closes every writer, reporting all failures rather than the first
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	multi := &errors.MultiError{}
	for topic, w := range p.writers {
		if err := w.Close(); err != nil {
			multi.Add(errors.Wrapf(err, "close writer for %s", topic))
		}
	}
	return multi.ToError()
}
