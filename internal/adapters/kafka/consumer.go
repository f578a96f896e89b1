package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"

	"argus/pkg/logger"
)

// Consumer wraps a kafka.Reader for one topic
type Consumer struct {
	reader *kafka.Reader
	log    *logger.Logger
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	Brokers  []string
	GroupID  string
	Topic    string
	MinBytes int
	MaxBytes int
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(cfg ConsumerConfig) *Consumer {
	if cfg.MinBytes == 0 {
		cfg.MinBytes = 10e3 // 10KB
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = 10e6 // 10MB
	}

	log := logger.Get().With("component", "kafka_consumer", "topic", cfg.Topic)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
		// A new consumer group starts at the tail: replaying every
		// historical alert into Telegram would flood the channel
		StartOffset: kafka.LastOffset,
	})

	log.Info("Kafka consumer created",
		"brokers", cfg.Brokers,
		"group_id", cfg.GroupID,
		"topic", cfg.Topic,
	)

	return &Consumer{
		reader: reader,
		log:    log,
	}
}

// ReadMessage blocks until the next message arrives or ctx is cancelled.
// The shutdown check runs before the blocking read, so a consumer loop
// that was cancelled between messages never touches the network again.
func (c *Consumer) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	default:
	}

	msg, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return kafka.Message{}, ctx.Err()
		}
		return kafka.Message{}, err
	}

	return msg, nil
}

// Close closes the underlying reader, unblocking any in-flight read
func (c *Consumer) Close() error {
	return c.reader.Close()
}
