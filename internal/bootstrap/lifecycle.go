package bootstrap

import (
	"context"
	"sync"
	"time"

	chclient "argus/internal/adapters/clickhouse"
	"argus/internal/adapters/kafka"
	pgclient "argus/internal/adapters/postgres"
	redisclient "argus/internal/adapters/redis"
	"argus/internal/api"
	"argus/internal/workers"
	"argus/pkg/errors"
	"argus/pkg/logger"
)

// Lifecycle manages graceful startup and shutdown of components
type Lifecycle struct {
	shutdownTimeout time.Duration
}

// NewLifecycle creates a new lifecycle manager
func NewLifecycle() *Lifecycle {
	return &Lifecycle{
		// Long enough to cover the worker scheduler's own drain window
		shutdownTimeout: 150 * time.Second,
	}
}

// Shutdown performs coordinated cleanup in the correct order:
// 1. No new requests accepted
// 2. Workers finish cleanly
// 3. Kafka consumers unblock before we wait for goroutines
// 4. Producer closes after consumers
// 5. Logs and errors flushed
// 6. Database connections last (earlier steps may still need them)
func (l *Lifecycle) Shutdown(
	wg *sync.WaitGroup,
	httpServer *api.Server,
	workerScheduler *workers.Scheduler,
	alertConsumer *kafka.Consumer,
	kafkaProducer *kafka.Producer,
	pgClient *pgclient.Client,
	chClient *chclient.Client,
	redisClient *redisclient.Client,
	errorTracker errors.Tracker,
	log *logger.Logger,
) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), l.shutdownTimeout)
	defer shutdownCancel()

	log.Info("[1/7] Stopping HTTP server...")
	httpCtx, httpCancel := context.WithTimeout(shutdownCtx, 5*time.Second)
	defer httpCancel()

	if err := httpServer.Shutdown(httpCtx); err != nil {
		log.Error("HTTP server shutdown failed", "error", err)
	} else {
		log.Info("✓ HTTP server stopped")
	}

	log.Info("[2/7] Stopping background workers...")
	if workerScheduler != nil && workerScheduler.IsRunning() {
		if err := workerScheduler.Stop(); err != nil {
			log.Error("Workers shutdown failed", "error", err)
		} else {
			log.Info("✓ Workers stopped")
		}
	}

	// Close consumers before waiting on goroutines so blocked
	// ReadMessage calls return
	log.Info("[3/7] Closing Kafka consumers...")
	l.closeKafkaConsumers(map[string]*kafka.Consumer{
		"alert_relay": alertConsumer,
	}, log)

	log.Info("[4/7] Waiting for goroutines...")
	l.waitForGoroutines(wg, 5*time.Second, log)

	log.Info("[5/7] Closing Kafka producer...")
	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			log.Error("Kafka producer close failed", "error", err)
		} else {
			log.Info("✓ Kafka producer closed")
		}
	}

	log.Info("[6/7] Flushing error tracker and logs...")
	l.flushErrorTracker(errorTracker, shutdownCtx, log)
	if err := logger.Sync(); err != nil {
		log.Warn("Log sync completed with warnings")
	}

	log.Info("[7/7] Closing database connections...")
	l.closeDatabases(pgClient, chClient, redisClient, log)

	log.Info("✅ Graceful shutdown complete")
}

func (l *Lifecycle) closeKafkaConsumers(consumers map[string]*kafka.Consumer, log *logger.Logger) {
	for name, consumer := range consumers {
		if consumer != nil {
			if err := consumer.Close(); err != nil {
				log.Error("Kafka consumer close failed", "consumer", name, "error", err)
			}
		}
	}
}

func (l *Lifecycle) waitForGoroutines(wg *sync.WaitGroup, timeout time.Duration, log *logger.Logger) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("✓ All goroutines finished")
	case <-time.After(timeout):
		log.Warn("⚠ Some goroutines did not finish within timeout", "timeout", timeout)
	}
}

func (l *Lifecycle) flushErrorTracker(tracker errors.Tracker, ctx context.Context, log *logger.Logger) {
	if tracker == nil {
		return
	}

	flushCtx, flushCancel := context.WithTimeout(ctx, 3*time.Second)
	defer flushCancel()

	if err := tracker.Flush(flushCtx); err != nil {
		log.Error("Error tracker flush failed", "error", err)
	} else {
		log.Info("✓ Error tracker flushed")
	}
}

func (l *Lifecycle) closeDatabases(
	pgClient *pgclient.Client,
	chClient *chclient.Client,
	redisClient *redisclient.Client,
	log *logger.Logger,
) {
	var dbErrors []error

	if pgClient != nil {
		if err := pgClient.Close(); err != nil {
			dbErrors = append(dbErrors, errors.Wrap(err, "postgres"))
		}
	}

	if chClient != nil {
		if err := chClient.Close(); err != nil {
			dbErrors = append(dbErrors, errors.Wrap(err, "clickhouse"))
		}
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			dbErrors = append(dbErrors, errors.Wrap(err, "redis"))
		}
	}

	if len(dbErrors) > 0 {
		log.Error("Database close errors", "errors", dbErrors)
	} else {
		log.Info("✓ Database connections closed")
	}
}
