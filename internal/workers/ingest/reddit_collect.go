package ingest

import (
	"context"
	"time"

	"argus/internal/services/pipeline"
	"argus/internal/workers"
	"argus/pkg/errors"
)

// RedditCollectWorker runs the subreddit mention collection on a schedule
type RedditCollectWorker struct {
	*workers.BaseWorker
	pipeline *pipeline.Service
}

// NewRedditCollectWorker creates a new reddit collection worker
func NewRedditCollectWorker(pipelineSvc *pipeline.Service, interval time.Duration, enabled bool) *RedditCollectWorker {
	return &RedditCollectWorker{
		BaseWorker: workers.NewBaseWorker("reddit_collect", interval, enabled),
		pipeline:   pipelineSvc,
	}
}

// Run executes one collect-and-store cycle
func (w *RedditCollectWorker) Run(ctx context.Context) error {
	stats, err := w.pipeline.RunRedditCollection(ctx)
	if err != nil {
		return errors.Wrap(err, "reddit collection run")
	}

	w.Log().Infow("Reddit collection finished",
		"run_id", stats.RunID,
		"mentions_collected", stats.MentionsCollected,
		"mentions_stored", stats.MentionsStored,
		"item_errors", len(stats.Errors),
	)
	return nil
}
