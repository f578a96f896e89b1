package workers

import (
	"context"
	"sync"
	"time"

	"argus/pkg/logger"
)

// Worker is a background job the scheduler runs on a fixed interval
type Worker interface {
	// Name identifies the worker in logs, metrics and health reports
	Name() string

	// Run performs a single iteration and returns. Long work must honor
	// ctx so shutdown is not held up.
	Run(ctx context.Context) error

	// Interval is the pause between the end of one run and the start of
	// the next
	Interval() time.Duration

	// Enabled reports whether the scheduler should run this worker at all
	Enabled() bool
}

// HealthReporter is implemented by workers that track run statistics
type HealthReporter interface {
	Worker
	Health() WorkerHealth
}

// WorkerHealth is a snapshot of a worker's run history
type WorkerHealth struct {
	LastRun     time.Time
	LastError   error
	RunCount    int64
	ErrorCount  int64
	AvgDuration time.Duration
	Enabled     bool
}

// BaseWorker carries the name, interval and run counters shared by all
// workers. Concrete workers embed it and implement Run.
type BaseWorker struct {
	name     string
	interval time.Duration
	enabled  bool
	log      *logger.Logger

	healthMu      sync.RWMutex
	lastRun       time.Time
	lastError     error
	runCount      int64
	errorCount    int64
	totalDuration time.Duration
}

func NewBaseWorker(name string, interval time.Duration, enabled bool) *BaseWorker {
	return &BaseWorker{
		name:     name,
		interval: interval,
		enabled:  enabled,
		log:      logger.Get().With("worker", name),
	}
}

func (w *BaseWorker) Name() string { return w.name }

func (w *BaseWorker) Interval() time.Duration { return w.interval }

func (w *BaseWorker) Enabled() bool { return w.enabled }

// Log returns the worker-scoped logger
func (w *BaseWorker) Log() *logger.Logger { return w.log }

// Health returns the current run statistics
func (w *BaseWorker) Health() WorkerHealth {
	w.healthMu.RLock()
	defer w.healthMu.RUnlock()

	var avg time.Duration
	if w.runCount > 0 {
		avg = time.Duration(int64(w.totalDuration) / w.runCount)
	}

	return WorkerHealth{
		LastRun:     w.lastRun,
		LastError:   w.lastError,
		RunCount:    w.runCount,
		ErrorCount:  w.errorCount,
		AvgDuration: avg,
		Enabled:     w.enabled,
	}
}

// RecordRun counts a successful run and clears the last error
func (w *BaseWorker) RecordRun(duration time.Duration) {
	w.healthMu.Lock()
	defer w.healthMu.Unlock()

	w.lastRun = time.Now()
	w.runCount++
	w.totalDuration += duration
	w.lastError = nil
}

// RecordError counts a failed run and keeps the error for health reports
func (w *BaseWorker) RecordError(err error, duration time.Duration) {
	w.healthMu.Lock()
	defer w.healthMu.Unlock()

	w.lastRun = time.Now()
	w.runCount++
	w.errorCount++
	w.totalDuration += duration
	w.lastError = err
}
