package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"argus/internal/domain/catalog"
	"argus/internal/domain/pricing"
	"argus/internal/domain/sentiment"
	"argus/internal/events"
	"argus/internal/metrics"
	"argus/internal/services/alerting"
	"argus/internal/services/loader"
	"argus/internal/services/matcher"
	"argus/internal/services/normalizer"
	pricingservice "argus/internal/services/pricing"
	riskservice "argus/internal/services/risk"
	"argus/pkg/errors"
	"argus/pkg/logger"
)

// Task names accepted by the CLI and reported in run-completed events
const (
	TaskFull             = "full"
	TaskPriceCrawl       = "price_crawl"
	TaskRedditCollection = "reddit_collection"
	TaskRiskScan         = "risk_scan"
)

const (
	riskScanLockKey = "locks:risk_scan"
	riskScanLockTTL = 30 * time.Minute

	// latestPriceWindow bounds how old an observation may be and still
	// count as a SKU's current price during a risk scan
	latestPriceWindow = 24 * time.Hour
)

// Crawler fetches raw marketplace listings
type Crawler interface {
	Crawl(ctx context.Context) ([]catalog.RawListing, error)
}

// Collector fetches community mentions
type Collector interface {
	Collect(ctx context.Context) ([]sentiment.Mention, error)
}

// Locker serializes risk scans across processes
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

// Stats summarizes one pipeline run
type Stats struct {
	RunID             string
	Task              string
	ListingsCrawled   int
	ListingsStored    int
	SKUsCreated       int
	MentionsCollected int
	MentionsStored    int
	SKUsAssessed      int
	HighRisk          int
	AlertsDispatched  int
	Skipped           bool
	Errors            []string
	StartedAt         time.Time
	Duration          time.Duration
}

func (st *Stats) addError(err error) {
	st.Errors = append(st.Errors, err.Error())
}

// Config tunes pipeline behavior per run
type Config struct {
	// SentimentDays is the lookback window for release-signal mentions
	SentimentDays int
}

// Service orchestrates the crawl, collection and risk-scan flows.
// Item-level failures are recorded and skipped so one bad listing or
// SKU never aborts a whole run.
type Service struct {
	crawler    Crawler
	collector  Collector
	normalizer *normalizer.Service
	matcher    *matcher.Service
	loader     *loader.Service
	trend      *pricingservice.Service
	engine     *riskservice.Service
	alerting   *alerting.Service
	catalog    catalog.Repository
	seen       sentiment.SeenStore
	locker     Locker
	publisher  *events.Publisher
	tracker    errors.Tracker
	cfg        Config
	log        *logger.Logger
}

// NewService creates a pipeline orchestrator
func NewService(
	crawler Crawler,
	collector Collector,
	normalizerSvc *normalizer.Service,
	matcherSvc *matcher.Service,
	loaderSvc *loader.Service,
	trend *pricingservice.Service,
	engine *riskservice.Service,
	alertingSvc *alerting.Service,
	catalogRepo catalog.Repository,
	seen sentiment.SeenStore,
	locker Locker,
	publisher *events.Publisher,
	tracker errors.Tracker,
	cfg Config,
	log *logger.Logger,
) *Service {
	if cfg.SentimentDays <= 0 {
		cfg.SentimentDays = 7
	}
	return &Service{
		crawler:    crawler,
		collector:  collector,
		normalizer: normalizerSvc,
		matcher:    matcherSvc,
		loader:     loaderSvc,
		trend:      trend,
		engine:     engine,
		alerting:   alertingSvc,
		catalog:    catalogRepo,
		seen:       seen,
		locker:     locker,
		publisher:  publisher,
		tracker:    tracker,
		cfg:        cfg,
		log:        log.With("component", "pipeline"),
	}
}

// RunPriceCrawl crawls listings, resolves them against the catalog and
// records price observations
func (s *Service) RunPriceCrawl(ctx context.Context) (*Stats, error) {
	stats := s.newStats(TaskPriceCrawl)
	err := s.priceCrawl(ctx, stats)
	s.complete(ctx, stats, err)
	return stats, err
}

// RunRedditCollection collects subreddit mentions, drops already-seen
// posts and stores scored mentions
func (s *Service) RunRedditCollection(ctx context.Context) (*Stats, error) {
	stats := s.newStats(TaskRedditCollection)
	err := s.redditCollection(ctx, stats)
	s.complete(ctx, stats, err)
	return stats, err
}

// RunRiskScan assesses every SKU and dispatches alerts for high-risk
// ones. The scan is guarded by a Redis lock; a run that finds the lock
// held returns immediately with Skipped set.
func (s *Service) RunRiskScan(ctx context.Context) (*Stats, error) {
	stats := s.newStats(TaskRiskScan)
	err := s.riskScan(ctx, stats)
	s.complete(ctx, stats, err)
	return stats, err
}

// RunFull executes crawl, collection and risk scan in sequence. A
// failing phase is recorded and the remaining phases still run.
func (s *Service) RunFull(ctx context.Context) (*Stats, error) {
	stats := s.newStats(TaskFull)
	s.log.Infow("Starting full pipeline run", "run_id", stats.RunID)

	multi := &errors.MultiError{}
	if err := s.priceCrawl(ctx, stats); err != nil {
		stats.addError(err)
		multi.Add(errors.Wrap(err, "price crawl phase"))
	}
	if err := s.redditCollection(ctx, stats); err != nil {
		stats.addError(err)
		multi.Add(errors.Wrap(err, "reddit collection phase"))
	}
	if err := s.riskScan(ctx, stats); err != nil {
		stats.addError(err)
		multi.Add(errors.Wrap(err, "risk scan phase"))
	}

	err := multi.ToError()
	s.complete(ctx, stats, err)
	return stats, err
}

func (s *Service) priceCrawl(ctx context.Context, stats *Stats) error {
	s.breadcrumb(ctx, "price crawl started", stats)
	s.log.Infow("Crawling marketplace listings")

	listings, err := s.crawler.Crawl(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to crawl listings")
	}
	stats.ListingsCrawled += len(listings)
	s.log.Infow("  → Crawled listings", "count", len(listings))
	if len(listings) == 0 {
		return nil
	}

	// Normalize the batch; failures are recorded and the listing dropped
	// so the rest keeps going
	names := make([]string, len(listings))
	for i, listing := range listings {
		names[i] = listing.Name
	}
	products := make([]catalog.NormalizedProduct, 0, len(listings))
	kept := make([]catalog.RawListing, 0, len(listings))
	for i, result := range s.normalizer.NormalizeBatch(names) {
		if result.Err != nil {
			s.log.Warnw("Skipping unnormalizable listing", "name", result.Raw, "error", result.Err)
			stats.addError(errors.Wrapf(result.Err, "normalize %q", result.Raw))
			continue
		}
		products = append(products, result.Product)
		kept = append(kept, listings[i])
	}

	decisions := s.matcher.BatchMatch(ctx, products)

	observations := make([]pricing.Observation, 0, len(decisions))
	for i, decision := range decisions {
		skuID, created, err := s.loader.ApplyDecision(ctx, decision)
		if err != nil {
			s.log.Warnw("Skipping unresolvable listing", "name", kept[i].Name, "error", err)
			stats.addError(errors.Wrapf(err, "resolve %q", kept[i].Name))
			continue
		}
		if created {
			stats.SKUsCreated++
		}
		observations = append(observations, pricing.Observation{
			SKUID:      skuID,
			Price:      kept[i].Price,
			Source:     kept[i].Source,
			URL:        kept[i].URL,
			RecordedAt: kept[i].CollectedAt,
		})
	}

	if err := s.loader.RecordPrices(ctx, observations); err != nil {
		return errors.Wrap(err, "failed to record prices")
	}
	stats.ListingsStored += len(observations)
	s.log.Infow("  → Recorded price observations", "count", len(observations), "skus_created", stats.SKUsCreated)
	return nil
}

func (s *Service) redditCollection(ctx context.Context, stats *Stats) error {
	s.breadcrumb(ctx, "reddit collection started", stats)
	s.log.Infow("Collecting subreddit mentions")

	mentions, err := s.collector.Collect(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to collect mentions")
	}
	stats.MentionsCollected += len(mentions)
	s.log.Infow("  → Collected mentions", "count", len(mentions))
	if len(mentions) == 0 {
		return nil
	}

	fresh, err := s.filterSeen(ctx, mentions)
	if err != nil {
		return err
	}
	if len(fresh) == 0 {
		s.log.Infow("  → All collected posts already seen")
		return nil
	}

	if err := s.loader.StoreMentions(ctx, fresh); err != nil {
		return errors.Wrap(err, "failed to store mentions")
	}
	stats.MentionsStored += len(fresh)

	s.markSeen(ctx, fresh, stats)
	s.log.Infow("  → Stored mentions", "count", len(fresh), "deduplicated", len(mentions)-len(fresh))
	return nil
}

// filterSeen drops mentions whose post URL was stored by an earlier
// run. The check happens before storage and marking after it, so a
// failed insert leaves the URL unmarked and the next run retries it.
func (s *Service) filterSeen(ctx context.Context, mentions []sentiment.Mention) ([]sentiment.Mention, error) {
	fresh := make([]sentiment.Mention, 0, len(mentions))
	seenByURL := make(map[string]bool, len(mentions))
	for _, mention := range mentions {
		seen, ok := seenByURL[mention.PostURL]
		if !ok {
			var err error
			seen, err = s.seen.IsSeen(ctx, mention.PostURL)
			if err != nil {
				return nil, errors.Wrap(err, "failed to check seen store")
			}
			seenByURL[mention.PostURL] = seen
		}
		if seen {
			continue
		}
		fresh = append(fresh, mention)
	}
	return fresh, nil
}

func (s *Service) markSeen(ctx context.Context, stored []sentiment.Mention, stats *Stats) {
	marked := make(map[string]bool, len(stored))
	for _, mention := range stored {
		if marked[mention.PostURL] {
			continue
		}
		marked[mention.PostURL] = true
		if _, err := s.seen.MarkSeen(ctx, mention.PostURL); err != nil {
			s.log.Warnw("Failed to mark post seen", "url", mention.PostURL, "error", err)
			stats.addError(errors.Wrapf(err, "mark seen %s", mention.PostURL))
		}
	}
}

func (s *Service) riskScan(ctx context.Context, stats *Stats) error {
	s.breadcrumb(ctx, "risk scan started", stats)

	acquired, err := s.locker.AcquireLock(ctx, riskScanLockKey, riskScanLockTTL)
	if err != nil {
		return errors.Wrap(err, "failed to acquire risk scan lock")
	}
	if !acquired {
		s.log.Infow("Risk scan already running elsewhere, skipping")
		stats.Skipped = true
		return nil
	}
	defer func() {
		if err := s.locker.ReleaseLock(ctx, riskScanLockKey); err != nil {
			s.log.Warnw("Failed to release risk scan lock", "error", err)
		}
	}()

	s.log.Infow("Scanning catalog for inventory risk", "sentiment_days", s.cfg.SentimentDays)

	results, err := s.engine.RiskForAll(ctx, s.cfg.SentimentDays)
	if err != nil {
		return errors.Wrap(err, "failed to assess catalog risk")
	}
	stats.SKUsAssessed += len(results)

	counts, err := s.engine.ReleaseMentionCounts(ctx, s.cfg.SentimentDays)
	if err != nil {
		return errors.Wrap(err, "failed to count release mentions")
	}
	var releaseMentions int64
	for _, count := range counts {
		releaseMentions += count
	}

	latest, err := s.trend.LatestPrices(ctx, time.Now().Add(-latestPriceWindow))
	if err != nil {
		return errors.Wrap(err, "failed to load latest prices")
	}
	currentBySKU := make(map[int64]float64, len(latest))
	for _, lp := range latest {
		currentBySKU[lp.SKUID] = lp.Price
	}

	for skuID, result := range results {
		if !result.HighRisk {
			continue
		}
		stats.HighRisk++

		current, ok := currentBySKU[skuID]
		if !ok {
			s.log.Warnw("High-risk SKU has no recent price, skipping alert", "sku_id", skuID)
			continue
		}

		dispatched, err := s.dispatchAlert(ctx, skuID, result.Index, current, releaseMentions)
		if err != nil {
			s.log.Warnw("Failed to dispatch alert", "sku_id", skuID, "error", err)
			stats.addError(errors.Wrapf(err, "alert sku %d", skuID))
			continue
		}
		if dispatched {
			stats.AlertsDispatched++
		}
	}

	s.log.Infow("  → Risk scan finished",
		"assessed", stats.SKUsAssessed,
		"high_risk", stats.HighRisk,
		"alerts", stats.AlertsDispatched,
	)
	return nil
}

func (s *Service) dispatchAlert(ctx context.Context, skuID int64, index decimal.Decimal, current float64, releaseMentions int64) (bool, error) {
	sku, err := s.catalog.GetByID(ctx, skuID)
	if err != nil {
		return false, errors.Wrap(err, "failed to load sku")
	}

	factors, err := s.engine.ContributingFactors(ctx, skuID, decimal.NewFromFloat(current), releaseMentions)
	if err != nil {
		return false, errors.Wrap(err, "failed to compute factors")
	}

	return s.alerting.Dispatch(ctx, sku, index, factors)
}

func (s *Service) newStats(task string) *Stats {
	return &Stats{
		RunID:     uuid.New().String(),
		Task:      task,
		StartedAt: time.Now(),
	}
}

// breadcrumb leaves a phase marker in the error tracker so a captured
// failure shows which stages ran before it
func (s *Service) breadcrumb(ctx context.Context, message string, stats *Stats) {
	s.tracker.AddBreadcrumb(ctx, message, "pipeline", errors.LevelInfo, map[string]interface{}{
		"run_id": stats.RunID,
		"task":   stats.Task,
	})
}

func (s *Service) complete(ctx context.Context, stats *Stats, err error) {
	stats.Duration = time.Since(stats.StartedAt)

	metrics.RecordPipelineRun(stats.Task, stats.Duration, stats.Skipped, err)
	metrics.RecordPipelineItems(stats.Task, map[string]int{
		"listings_stored":   stats.ListingsStored,
		"skus_created":      stats.SKUsCreated,
		"mentions_stored":   stats.MentionsStored,
		"alerts_dispatched": stats.AlertsDispatched,
		"item_errors":       len(stats.Errors),
	})

	tags := map[string]string{"task": stats.Task, "run_id": stats.RunID}
	switch {
	case err != nil:
		s.tracker.CaptureError(ctx, err, tags)
	case len(stats.Errors) > 0:
		s.tracker.CaptureMessage(ctx, "pipeline run completed with item errors", errors.LevelWarning, tags)
	}

	event := events.PipelineRunCompleted{
		RunID:            stats.RunID,
		Task:             stats.Task,
		ListingsStored:   stats.ListingsStored,
		SKUsCreated:      stats.SKUsCreated,
		MentionsStored:   stats.MentionsStored,
		AlertsDispatched: stats.AlertsDispatched,
		ItemErrors:       len(stats.Errors),
		DurationSeconds:  stats.Duration.Seconds(),
		Timestamp:        time.Now().UTC(),
	}
	if err != nil {
		event.Err = err.Error()
	}
	s.publisher.PublishRunCompleted(ctx, event)

	s.log.Infow("Pipeline run completed",
		"run_id", stats.RunID,
		"task", stats.Task,
		"listings_stored", stats.ListingsStored,
		"skus_created", stats.SKUsCreated,
		"mentions_stored", stats.MentionsStored,
		"alerts_dispatched", stats.AlertsDispatched,
		"item_errors", len(stats.Errors),
		"duration", stats.Duration,
		"success", err == nil,
	)
}
