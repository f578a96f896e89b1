package sentry

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"argus/pkg/errors"
)

const defaultFlushTimeout = 2 * time.Second

// Tracker reports errors, messages and breadcrumbs to Sentry
type Tracker struct {
	hub *sentry.Hub
}

// New initializes the Sentry SDK and returns a tracker bound to the
// current hub
func New(dsn string, environment string) (*Tracker, error) {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		AttachStacktrace: true,
	})
	if err != nil {
		return nil, err
	}

	return &Tracker{
		hub: sentry.CurrentHub(),
	}, nil
}

// CaptureError reports err with the given tags. Runs on a cloned hub so
// tags from concurrent captures never bleed into each other.
func (t *Tracker) CaptureError(ctx context.Context, err error, tags map[string]string) error {
	hub := t.hub.Clone()

	hub.ConfigureScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
	})

	hub.CaptureException(err)
	return nil
}

// CaptureMessage reports a standalone message at the given level
func (t *Tracker) CaptureMessage(ctx context.Context, message string, level errors.Level, tags map[string]string) error {
	hub := t.hub.Clone()

	hub.ConfigureScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		scope.SetLevel(sentryLevel(level))
	})

	hub.CaptureMessage(message)
	return nil
}

// AddBreadcrumb records a step that shows up on later captures
func (t *Tracker) AddBreadcrumb(ctx context.Context, message string, category string, level errors.Level, data map[string]interface{}) {
	t.hub.AddBreadcrumb(&sentry.Breadcrumb{
		Message:  message,
		Category: category,
		Level:    sentryLevel(level),
		Data:     data,
	}, &sentry.BreadcrumbHint{})
}

// Flush delivers queued events, honoring the ctx deadline when one is set
func (t *Tracker) Flush(ctx context.Context) error {
	timeout := defaultFlushTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	if !sentry.Flush(timeout) {
		return errors.New("sentry flush timed out")
	}
	return nil
}

func sentryLevel(level errors.Level) sentry.Level {
	switch level {
	case errors.LevelDebug:
		return sentry.LevelDebug
	case errors.LevelInfo:
		return sentry.LevelInfo
	case errors.LevelWarning:
		return sentry.LevelWarning
	case errors.LevelError:
		return sentry.LevelError
	case errors.LevelFatal:
		return sentry.LevelFatal
	default:
		return sentry.LevelInfo
	}
}
