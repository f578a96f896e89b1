package consumers

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"argus/internal/adapters/kafka"
	"argus/internal/events"
	"argus/internal/metrics"
	"argus/pkg/errors"
	"argus/pkg/logger"
)

const (
	relayProcessTimeout = 30 * time.Second
	relaySendRetries    = 3
)

// Sender delivers a formatted notification to the operator channel
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// AlertRelay consumes risk.alerts and forwards each alert message to
// Telegram. Delivery failures are logged without stalling the consumer:
// the alert row is already persisted, so a missed notification can be
// recovered from the unacknowledged alerts endpoint.
type AlertRelay struct {
	consumer *kafka.Consumer
	sender   Sender
	log      *logger.Logger
}

// NewAlertRelay creates a new alert relay consumer
func NewAlertRelay(consumer *kafka.Consumer, sender Sender, log *logger.Logger) *AlertRelay {
	return &AlertRelay{
		consumer: consumer,
		sender:   sender,
		log:      log.With("component", "alert_relay"),
	}
}

// Start begins consuming alert events. Blocks until ctx is cancelled.
func (r *AlertRelay) Start(ctx context.Context) error {
	r.log.Info("Starting alert relay...")

	defer func() {
		if err := r.consumer.Close(); err != nil {
			r.log.Error("Failed to close consumer", "error", err)
		}
	}()

	for {
		msg, err := r.consumer.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				r.log.Info("Alert relay stopping (context cancelled)")
				return nil
			}
			r.log.Errorw("Failed to read alert event", "error", err)
			continue
		}

		// Process with its own timeout so a slow Telegram call cannot
		// wedge the consumer past shutdown
		processCtx, cancel := context.WithTimeout(context.Background(), relayProcessTimeout)
		err = r.handleMessage(processCtx, msg)
		cancel()

		metrics.RecordKafkaMessage(msg.Topic, "consumed", err)
		if err != nil {
			r.log.Errorw("Failed to relay alert",
				"topic", msg.Topic,
				"key", string(msg.Key),
				"error", err,
			)
		}

		if ctx.Err() != nil {
			r.log.Info("Alert relay stopping after processing current message")
			return nil
		}
	}
}

func (r *AlertRelay) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var event events.AlertRaised
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return errors.Wrap(err, "unmarshal alert event")
	}

	if event.Message == "" {
		r.log.Warnw("Alert event carries no message, skipping",
			"alert_id", event.AlertID,
			"sku_id", event.SKUID,
		)
		return nil
	}

	if err := r.sender.SendWithRetry(ctx, event.Message, relaySendRetries); err != nil {
		return errors.Wrapf(err, "send alert %d", event.AlertID)
	}

	r.log.Infow("Alert relayed",
		"alert_id", event.AlertID,
		"sku_id", event.SKUID,
		"reason", event.Reason,
	)

	return nil
}
