package telegram

import (
	"context"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"argus/internal/adapters/config"
	"argus/pkg/errors"
	"argus/pkg/logger"
)

// Notifier delivers alert messages to a fixed Telegram chat.
// Outbound only; the bot never polls for updates.
type Notifier struct {
	api         *tgbotapi.BotAPI
	chatID      int64
	log         *logger.Logger
	rateLimiter *rate.Limiter
}

// NewNotifier creates a Telegram notifier from configuration
func NewNotifier(cfg config.TelegramConfig, log *logger.Logger) (*Notifier, error) {
	if cfg.BotToken == "" {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "telegram bot token is required")
	}
	if cfg.ChatID == 0 {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "telegram chat id is required")
	}

	httpClient := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	api, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create telegram bot")
	}

	log.Infof("Authorized on account %s", api.Self.UserName)

	// Telegram allows ~30 msg/sec; stay below it
	rateLimiter := rate.NewLimiter(rate.Limit(20), 30)

	return &Notifier{
		api:         api,
		chatID:      cfg.ChatID,
		log:         log.With("component", "telegram_notifier"),
		rateLimiter: rateLimiter,
	}, nil
}

// Send delivers a text message to the configured chat
func (n *Notifier) Send(ctx context.Context, text string) error {
	if err := n.rateLimiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "rate limiter wait failed")
	}

	start := time.Now()

	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = "Markdown"

	_, err := n.api.Send(msg)

	duration := time.Since(start)

	if err != nil {
		n.log.Errorw("Failed to send message",
			"chat_id", n.chatID,
			"error", err,
			"duration_ms", duration.Milliseconds(),
		)
		return errors.Wrap(err, "failed to send message")
	}

	n.log.Debugw("Message sent successfully",
		"chat_id", n.chatID,
		"duration_ms", duration.Milliseconds(),
	)

	return nil
}

// SendWithRetry delivers a message, retrying with backoff on failure
func (n *Notifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := n.Send(ctx, text)
		if err == nil {
			return nil
		}

		lastErr = err
		n.log.Warnw("Failed to send notification, retrying...",
			"attempt", attempt+1,
			"max_retries", maxRetries,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * time.Second):
		}
	}

	return errors.Wrapf(lastErr, "failed to send notification after %d retries", maxRetries)
}
