package events

import (
	"context"
	"strconv"

	"argus/internal/adapters/kafka"
	"argus/internal/metrics"
	"argus/pkg/logger"
)

// Publisher pushes domain events to Kafka. Delivery is best-effort:
// failures are logged and never fail the operation that raised the event,
// since every event mirrors state already persisted elsewhere.
type Publisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

// NewPublisher creates a new event publisher. A nil producer disables
// publishing, which keeps one-shot CLI runs free of a broker requirement.
func NewPublisher(producer *kafka.Producer, log *logger.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		log:      log,
	}
}

// PublishAlertRaised publishes an alert event keyed by SKU id
func (p *Publisher) PublishAlertRaised(ctx context.Context, event AlertRaised) {
	p.publish(ctx, kafka.TopicRiskAlert, strconv.FormatInt(event.SKUID, 10), event)
}

// PublishSKUCreated publishes a catalog creation event keyed by SKU id
func (p *Publisher) PublishSKUCreated(ctx context.Context, event SKUCreated) {
	p.publish(ctx, kafka.TopicSKUCreated, strconv.FormatInt(event.SKUID, 10), event)
}

// PublishRunCompleted publishes a pipeline completion event keyed by run id
func (p *Publisher) PublishRunCompleted(ctx context.Context, event PipelineRunCompleted) {
	p.publish(ctx, kafka.TopicPipelineRunCompleted, event.RunID, event)
}

func (p *Publisher) publish(ctx context.Context, topic, key string, event interface{}) {
	if p == nil || p.producer == nil {
		return
	}

	err := p.producer.Publish(ctx, topic, key, event)
	metrics.RecordKafkaMessage(topic, "produced", err)
	if err != nil {
		p.log.Errorw("Failed to publish event",
			"topic", topic,
			"key", key,
			"error", err,
		)
	}
}
