package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"argus/internal/workers"
	"argus/pkg/logger"
)

const (
	readinessTimeout = 5 * time.Second
	healthTimeout    = 10 * time.Second
)

// Handler serves the liveness, readiness and health endpoints backed by
// pings against the three stores
type Handler struct {
	log       *logger.Logger
	checks    []check
	startTime time.Time
	service   string
	version   string
	workers   WorkerPool
}

// WorkerPool exposes the scheduler's registered workers
type WorkerPool interface {
	GetWorkers() []workers.Worker
}

type check struct {
	name string
	ping func(ctx context.Context) error
}

// New creates a health check handler over the Postgres, ClickHouse and
// Redis connections
func New(
	log *logger.Logger,
	postgres *sqlx.DB,
	clickhouse driver.Conn,
	redisClient *redis.Client,
	service string,
	version string,
) *Handler {
	return &Handler{
		log: log.With("component", "health"),
		checks: []check{
			{name: "postgres", ping: postgres.PingContext},
			{name: "clickhouse", ping: clickhouse.Ping},
			{name: "redis", ping: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
		},
		startTime: time.Now(),
		service:   service,
		version:   version,
	}
}

// AttachWorkers adds background worker statistics to the health report.
// The scheduler is constructed after the HTTP handlers, so the pool
// arrives through a setter rather than New.
func (h *Handler) AttachWorkers(pool WorkerPool) {
	h.workers = pool
}

// Status is the overall health report
type Status struct {
	Status    string                     `json:"status"` // "healthy", "degraded", "unhealthy"
	Service   string                     `json:"service"`
	Version   string                     `json:"version"`
	Uptime    string                     `json:"uptime"`
	Timestamp string                     `json:"timestamp"`
	Checks    map[string]ComponentHealth `json:"checks,omitempty"`
	Workers   map[string]WorkerStatus    `json:"workers,omitempty"`
}

// ComponentHealth is the outcome of a single store ping
type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

// WorkerStatus is the run history of one background worker
type WorkerStatus struct {
	Enabled     bool   `json:"enabled"`
	LastRun     string `json:"last_run,omitempty"`
	Runs        int64  `json:"runs"`
	Errors      int64  `json:"errors"`
	AvgDuration string `json:"avg_duration,omitempty"`
	LastError   string `json:"last_error,omitempty"`
}

// HandleLiveness returns 200 OK while the process is running.
// Used by the Kubernetes liveness probe.
func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "alive",
	})
}

// HandleReadiness reports whether the service can accept traffic.
// All three stores must answer; any failure returns 503.
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks, healthy := h.runChecks(ctx)

	status := h.newStatus("healthy", checks)
	statusCode := http.StatusOK
	if healthy < len(h.checks) {
		status.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
		h.log.Warn("Readiness check failed", "checks", checks)
	}

	h.write(w, statusCode, status)
}

// HandleHealth returns the detailed health status. A partial outage
// reports "degraded" but still answers 200 so dashboards keep polling.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	checks, healthy := h.runChecks(ctx)

	status := h.newStatus("healthy", checks)
	status.Workers = h.workerReport()
	statusCode := http.StatusOK

	switch {
	case healthy == 0:
		status.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	case healthy < len(h.checks):
		status.Status = "degraded"
	}

	h.write(w, statusCode, status)
}

// workerReport snapshots every registered worker. A failing worker does
// not change the overall status; the stores decide that.
func (h *Handler) workerReport() map[string]WorkerStatus {
	if h.workers == nil {
		return nil
	}

	report := make(map[string]WorkerStatus)
	for _, w := range h.workers.GetWorkers() {
		status := WorkerStatus{Enabled: w.Enabled()}
		if reporter, ok := w.(workers.HealthReporter); ok {
			health := reporter.Health()
			status.Runs = health.RunCount
			status.Errors = health.ErrorCount
			if !health.LastRun.IsZero() {
				status.LastRun = health.LastRun.Format(time.RFC3339)
			}
			if health.AvgDuration > 0 {
				status.AvgDuration = health.AvgDuration.String()
			}
			if health.LastError != nil {
				status.LastError = health.LastError.Error()
			}
		}
		report[w.Name()] = status
	}

	return report
}

func (h *Handler) runChecks(ctx context.Context) (map[string]ComponentHealth, int) {
	results := make(map[string]ComponentHealth, len(h.checks))
	healthy := 0

	for _, c := range h.checks {
		start := time.Now()
		err := c.ping(ctx)
		elapsed := time.Since(start)

		if err != nil {
			h.log.Error("Health check failed", "check", c.name, "error", err, "elapsed", elapsed)
			results[c.name] = ComponentHealth{
				Status:       "unhealthy",
				ResponseTime: elapsed.String(),
				Error:        err.Error(),
			}
			continue
		}

		results[c.name] = ComponentHealth{
			Status:       "healthy",
			ResponseTime: elapsed.String(),
		}
		healthy++
	}

	return results, healthy
}

func (h *Handler) newStatus(overall string, checks map[string]ComponentHealth) Status {
	return Status{
		Status:    overall,
		Service:   h.service,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    checks,
	}
}

func (h *Handler) write(w http.ResponseWriter, statusCode int, status Status) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(status)
}
