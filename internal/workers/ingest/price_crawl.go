package ingest

import (
	"context"
	"time"

	"argus/internal/services/pipeline"
	"argus/internal/workers"
	"argus/pkg/errors"
)

// PriceCrawlWorker runs the marketplace price crawl on a schedule. The
// legacy scheduler ran this daily; the default interval keeps that
// cadence.
type PriceCrawlWorker struct {
	*workers.BaseWorker
	pipeline *pipeline.Service
}

// NewPriceCrawlWorker creates a new price crawl worker
func NewPriceCrawlWorker(pipelineSvc *pipeline.Service, interval time.Duration, enabled bool) *PriceCrawlWorker {
	return &PriceCrawlWorker{
		BaseWorker: workers.NewBaseWorker("price_crawl", interval, enabled),
		pipeline:   pipelineSvc,
	}
}

// Run executes one crawl-and-load cycle
func (w *PriceCrawlWorker) Run(ctx context.Context) error {
	stats, err := w.pipeline.RunPriceCrawl(ctx)
	if err != nil {
		return errors.Wrap(err, "price crawl run")
	}

	w.Log().Infow("Price crawl finished",
		"run_id", stats.RunID,
		"listings_crawled", stats.ListingsCrawled,
		"listings_stored", stats.ListingsStored,
		"skus_created", stats.SKUsCreated,
		"item_errors", len(stats.Errors),
	)
	return nil
}
