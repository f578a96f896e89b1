package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"argus/pkg/errors"
)

var globalLogger *Logger

// Logger wraps zap.SugaredLogger. Errors logged through Error and
// Errorf are also forwarded to the error tracker once one is attached.
type Logger struct {
	*zap.SugaredLogger
	errorTracker errors.Tracker
}

// Init builds the global logger. Production gets the JSON encoder,
// every other env gets the colored console encoder.
func Init(level, env string) error {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))

	zl, err := cfg.Build(
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		return err
	}

	globalLogger = &Logger{SugaredLogger: zl.Sugar()}
	return nil
}

func parseLevel(level string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// SetErrorTracker attaches the tracker that receives errors logged at
// error level. The tracker is built after the logger, so it arrives
// here rather than through Init.
func SetErrorTracker(tracker errors.Tracker) {
	if globalLogger != nil {
		globalLogger.errorTracker = tracker
	}
}

// Get returns the global logger. Before Init runs it falls back to a
// development logger so tests and early startup can still log.
func Get() *Logger {
	if globalLogger == nil {
		zl, _ := zap.NewDevelopment()
		globalLogger = &Logger{SugaredLogger: zl.Sugar()}
	}
	return globalLogger
}

// With returns a child logger carrying extra key-value context
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{
		SugaredLogger: l.SugaredLogger.With(args...),
		errorTracker:  l.errorTracker,
	}
}

// Error logs at error level and forwards to the tracker when attached
func (l *Logger) Error(args ...interface{}) {
	l.SugaredLogger.Error(args...)

	if l.errorTracker != nil {
		err := errors.Wrapf(errors.ErrInternal, "%v", args)
		l.errorTracker.CaptureError(context.Background(), err, map[string]string{
			"component": "logger",
		})
	}
}

// Errorf logs a formatted error and forwards it to the tracker when attached
func (l *Logger) Errorf(template string, args ...interface{}) {
	l.SugaredLogger.Errorf(template, args...)

	if l.errorTracker != nil {
		l.errorTracker.CaptureError(context.Background(), fmt.Errorf(template, args...), map[string]string{
			"component": "logger",
		})
	}
}

// Sync flushes buffered entries on shutdown
func Sync() error {
	if globalLogger != nil {
		return globalLogger.Sync()
	}
	return nil
}
