package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "argus_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "argus_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)

	// Pipeline metrics
	PipelineRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_pipeline_runs_total",
			Help: "Total number of pipeline runs",
		},
		[]string{"task", "status"}, // status: success|error|skipped
	)

	PipelineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "argus_pipeline_duration_seconds",
			Help:    "Pipeline run duration in seconds",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"task"},
	)

	PipelineItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_pipeline_items_total",
			Help: "Items processed by pipeline runs",
		},
		[]string{"task", "kind"}, // kind: listings_stored|skus_created|mentions_stored|alerts_dispatched|item_errors
	)

	// Collector HTTP metrics
	FetchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_fetch_requests_total",
			Help: "Total number of upstream fetch requests",
		},
		[]string{"source", "status"}, // source: danawa|reddit; status: success|error
	)

	FetchLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "argus_fetch_latency_seconds",
			Help:    "Upstream fetch latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"source"},
	)

	// Risk metrics
	AlertsRaised = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_risk_alerts_raised_total",
			Help: "Total number of risk alerts raised",
		},
		[]string{"reason"},
	)

	// System metrics
	KafkaMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "argus_kafka_messages_total",
			Help: "Total Kafka messages produced/consumed",
		},
		[]string{"topic", "direction", "status"}, // direction: produced|consumed
	)
)

// Init registers all metrics with Prometheus
func Init() {
	// Worker metrics
	prometheus.MustRegister(WorkerExecutions)
	prometheus.MustRegister(WorkerDuration)
	prometheus.MustRegister(WorkerLastRun)

	// Pipeline metrics
	prometheus.MustRegister(PipelineRuns)
	prometheus.MustRegister(PipelineDuration)
	prometheus.MustRegister(PipelineItems)

	// Collector HTTP metrics
	prometheus.MustRegister(FetchRequests)
	prometheus.MustRegister(FetchLatency)

	// Risk metrics
	prometheus.MustRegister(AlertsRaised)

	// System metrics
	prometheus.MustRegister(KafkaMessages)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	WorkerExecutions.WithLabelValues(worker, status).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}

// RecordPipelineRun records the outcome of one pipeline run
func RecordPipelineRun(task string, duration time.Duration, skipped bool, err error) {
	status := "success"
	switch {
	case err != nil:
		status = "error"
	case skipped:
		status = "skipped"
	}

	PipelineRuns.WithLabelValues(task, status).Inc()
	PipelineDuration.WithLabelValues(task).Observe(duration.Seconds())
}

// RecordPipelineItems adds processed item counts for a run
func RecordPipelineItems(task string, counts map[string]int) {
	for kind, count := range counts {
		if count > 0 {
			PipelineItems.WithLabelValues(task, kind).Add(float64(count))
		}
	}
}

// RecordFetch records one upstream HTTP fetch
func RecordFetch(source string, latency time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	FetchRequests.WithLabelValues(source, status).Inc()
	FetchLatency.WithLabelValues(source).Observe(latency.Seconds())
}

// RecordAlertRaised records a dispatched risk alert
func RecordAlertRaised(reason string) {
	AlertsRaised.WithLabelValues(reason).Inc()
}

// RecordKafkaMessage records a produced or consumed Kafka message
func RecordKafkaMessage(topic, direction string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	KafkaMessages.WithLabelValues(topic, direction, status).Inc()
}
