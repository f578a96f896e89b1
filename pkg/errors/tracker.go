package errors

import (
	"context"
)

// Tracker forwards errors and run context to an external service such
// as Sentry. A noop implementation stands in when tracking is disabled.
type Tracker interface {
	// CaptureError reports err with the given tags
	CaptureError(ctx context.Context, err error, tags map[string]string) error

	// CaptureMessage reports a standalone message at the given level
	CaptureMessage(ctx context.Context, message string, level Level, tags map[string]string) error

	// AddBreadcrumb records a step that shows up on later captures
	AddBreadcrumb(ctx context.Context, message string, category string, level Level, data map[string]interface{})

	// Flush delivers queued events before shutdown
	Flush(ctx context.Context) error
}

// Level is the severity attached to captured messages and breadcrumbs
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelFatal   Level = "fatal"
)

func (l Level) String() string {
	return string(l)
}
