package workers

import (
	"context"
	"sync"
	"time"

	"argus/internal/metrics"
	"argus/pkg/errors"
	"argus/pkg/logger"
)

// shutdownTimeout bounds how long Stop waits for in-flight runs. Crawl
// runs are rate limited and can legitimately take minutes.
const shutdownTimeout = 2 * time.Minute

// Scheduler manages and coordinates multiple workers
type Scheduler struct {
	workers []Worker
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	log     *logger.Logger
	started bool
}

// NewScheduler creates a new worker scheduler
func NewScheduler() *Scheduler {
	return &Scheduler{
		workers: make([]Worker, 0),
		log:     logger.Get(),
	}
}

// RegisterWorker adds a worker to the scheduler
func (s *Scheduler) RegisterWorker(w Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		s.log.Warn("Cannot register worker after scheduler has started", "worker", w.Name())
		return
	}

	s.workers = append(s.workers, w)
	s.log.Info("Worker registered", "worker", w.Name(), "interval", w.Interval())
}

// Start begins running all registered workers. Each enabled worker runs
// immediately, then on its own ticker.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.Wrapf(errors.ErrInternal, "scheduler already started")
	}

	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.log.Info("Starting worker scheduler", "workers", len(s.workers))

	for _, worker := range s.workers {
		if !worker.Enabled() {
			s.log.Info("Skipping disabled worker", "worker", worker.Name())
			continue
		}

		s.wg.Add(1)
		go s.runWorker(worker)
	}

	s.log.Info("All workers started")
	return nil
}

// Stop gracefully shuts down all workers
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return errors.Wrapf(errors.ErrInternal, "scheduler not started")
	}

	s.cancel()
	s.mu.Unlock()

	s.log.Info("Stopping worker scheduler...")

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	var shutdownErr error
	select {
	case <-done:
		s.log.Info("All workers stopped gracefully")
	case <-time.After(shutdownTimeout):
		s.log.Warn("Worker shutdown timed out", "timeout", shutdownTimeout)
		shutdownErr = errors.Wrapf(errors.ErrTimeout, "shutdown timeout after %s", shutdownTimeout)
	}

	s.mu.Lock()
	s.started = false
	s.mu.Unlock()

	return shutdownErr
}

// runWorker executes a single worker in a loop
func (s *Scheduler) runWorker(worker Worker) {
	defer s.wg.Done()

	s.log.Info("Worker started", "worker", worker.Name())

	ticker := time.NewTicker(worker.Interval())
	defer ticker.Stop()

	// Run immediately on start
	s.executeWorker(worker)

	for {
		select {
		case <-s.ctx.Done():
			s.log.Info("Worker stopping due to context cancellation", "worker", worker.Name())
			return

		case <-ticker.C:
			s.executeWorker(worker)
		}
	}
}

// executeWorker runs a single iteration of the worker with panic
// recovery, health bookkeeping and metrics
func (s *Scheduler) executeWorker(worker Worker) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Worker panicked",
				"worker", worker.Name(),
				"panic", r,
			)
			s.record(worker, errors.Newf("panic: %v", r), time.Since(start))
		}
	}()

	err := worker.Run(s.ctx)
	duration := time.Since(start)
	s.record(worker, err, duration)

	if err != nil {
		s.log.Error("Worker execution failed",
			"worker", worker.Name(),
			"error", err,
			"duration", duration,
		)
	} else {
		s.log.Debug("Worker execution completed",
			"worker", worker.Name(),
			"duration", duration,
		)
	}
}

func (s *Scheduler) record(worker Worker, err error, duration time.Duration) {
	metrics.RecordWorkerExecution(worker.Name(), duration, err)

	recorder, ok := worker.(interface {
		RecordRun(time.Duration)
		RecordError(error, time.Duration)
	})
	if !ok {
		return
	}
	if err != nil {
		recorder.RecordError(err, duration)
	} else {
		recorder.RecordRun(duration)
	}
}

// GetWorkers returns all registered workers for monitoring
func (s *Scheduler) GetWorkers() []Worker {
	s.mu.RLock()
	defer s.mu.RUnlock()

	workers := make([]Worker, len(s.workers))
	copy(workers, s.workers)
	return workers
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}
