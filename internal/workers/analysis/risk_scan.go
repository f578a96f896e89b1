package analysis

import (
	"context"
	"time"

	"argus/internal/services/pipeline"
	"argus/internal/workers"
	"argus/pkg/errors"
)

// RiskScanWorker assesses the catalog for inventory risk on a schedule.
// Runs more often than the ingest workers so fresh observations surface
// as alerts within hours, not days.
type RiskScanWorker struct {
	*workers.BaseWorker
	pipeline *pipeline.Service
}

// NewRiskScanWorker creates a new risk scan worker
func NewRiskScanWorker(pipelineSvc *pipeline.Service, interval time.Duration, enabled bool) *RiskScanWorker {
	return &RiskScanWorker{
		BaseWorker: workers.NewBaseWorker("risk_scan", interval, enabled),
		pipeline:   pipelineSvc,
	}
}

// Run executes one catalog risk scan
func (w *RiskScanWorker) Run(ctx context.Context) error {
	stats, err := w.pipeline.RunRiskScan(ctx)
	if err != nil {
		return errors.Wrap(err, "risk scan run")
	}

	if stats.Skipped {
		w.Log().Infow("Risk scan skipped, lock held elsewhere", "run_id", stats.RunID)
		return nil
	}

	w.Log().Infow("Risk scan finished",
		"run_id", stats.RunID,
		"skus_assessed", stats.SKUsAssessed,
		"high_risk", stats.HighRisk,
		"alerts_dispatched", stats.AlertsDispatched,
		"item_errors", len(stats.Errors),
	)
	return nil
}
