package risk

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"argus/internal/domain/pricing"
	"argus/internal/domain/risk"
	"argus/internal/domain/sentiment"
	"argus/pkg/errors"
	"argus/pkg/logger"
)

// releaseMentionFactor scales release chatter against absolute KRW
// price deltas. The relative scale of the two terms is a business
// calibration; keep the constant exactly as tuned.
var releaseMentionFactor = decimal.NewFromFloat(0.3)

// TrendAnalyzer is the slice of the pricing service the engine consumes
type TrendAnalyzer interface {
	Baseline(ctx context.Context, skuID int64) (decimal.Decimal, error)
	LatestPrices(ctx context.Context, since time.Time) ([]pricing.LatestPrice, error)
}

// Config holds the injected risk calibration
type Config struct {
	// Threshold marks a risk index as high risk when the index falls
	// strictly below it
	Threshold decimal.Decimal
}

// Service combines price trends and release chatter into a risk index.
// A more negative index means greater inventory risk: a falling price
// reinforced by impending-release mentions.
type Service struct {
	trend    TrendAnalyzer
	mentions sentiment.Repository
	cfg      Config
	log      *logger.Logger
}

// NewService creates a new risk engine
func NewService(trend TrendAnalyzer, mentions sentiment.Repository, cfg Config, log *logger.Logger) *Service {
	return &Service{
		trend:    trend,
		mentions: mentions,
		cfg:      cfg,
		log:      log,
	}
}

// RiskIndex computes (currentPrice - baselinePrice) + 0.3 * mentions,
// rounded to 2 decimal places
func (s *Service) RiskIndex(ctx context.Context, skuID int64, current decimal.Decimal, releaseMentions int64) (decimal.Decimal, error) {
	if current.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, errors.NewValidationError("current_price", "must be positive", current.String())
	}
	if releaseMentions < 0 {
		return decimal.Zero, errors.NewValidationError("release_mentions", "must not be negative", releaseMentions)
	}

	baseline, err := s.trend.Baseline(ctx, skuID)
	if err != nil {
		return decimal.Zero, err
	}

	impact := decimal.NewFromInt(releaseMentions).Mul(releaseMentionFactor)
	return current.Sub(baseline).Add(impact).Round(2), nil
}

// IsHighRisk reports whether the index falls strictly below the
// threshold; an index exactly at the threshold is not high risk
func (s *Service) IsHighRisk(index decimal.Decimal) bool {
	return index.LessThan(s.cfg.Threshold)
}

// Threshold returns the injected high-risk threshold
func (s *Service) Threshold() decimal.Decimal {
	return s.cfg.Threshold
}

// RiskWithSentiment computes the risk decision from per-keyword mention
// counts, taking only release-signal keywords into the mention term
func (s *Service) RiskWithSentiment(ctx context.Context, skuID int64, current decimal.Decimal, counts map[string]int64) (risk.Result, error) {
	var releaseMentions int64
	for keyword, count := range counts {
		if sentiment.IsReleaseSignal(keyword) {
			releaseMentions += count
		}
	}

	index, err := s.RiskIndex(ctx, skuID, current, releaseMentions)
	if err != nil {
		return risk.Result{}, err
	}
	return risk.Result{Index: index, HighRisk: s.IsHighRisk(index)}, nil
}

// ReleaseMentionCounts aggregates deduplicated release-signal mention
// totals per keyword over the trailing window
func (s *Service) ReleaseMentionCounts(ctx context.Context, days int) (map[string]int64, error) {
	since := time.Now().AddDate(0, 0, -days)
	rows, err := s.mentions.ReleaseSignalCounts(ctx, since)
	if err != nil {
		return nil, errors.Wrap(err, "aggregate release mentions")
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Keyword] = int64(row.Mentions)
	}
	return counts, nil
}

// RiskForAll evaluates every SKU with a price observation in the last
// 24 hours at its latest price, against one catalog-wide release
// mention total for the trailing window. SKUs without enough history
// are skipped; a failing surrounding query fails the whole scan.
func (s *Service) RiskForAll(ctx context.Context, days int) (map[int64]risk.Result, error) {
	latest, err := s.trend.LatestPrices(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		return nil, errors.Wrap(err, "fetch latest prices for risk scan")
	}

	counts, err := s.ReleaseMentionCounts(ctx, days)
	if err != nil {
		return nil, err
	}
	var totalMentions int64
	for _, count := range counts {
		totalMentions += count
	}

	results := make(map[int64]risk.Result, len(latest))
	for _, lp := range latest {
		index, err := s.RiskIndex(ctx, lp.SKUID, decimal.NewFromFloat(lp.Price), totalMentions)
		if err != nil {
			if errors.IsInsufficientData(err) {
				continue
			}
			s.log.Warnw("Risk evaluation failed for SKU, skipping",
				"sku_id", lp.SKUID,
				"error", err,
			)
			continue
		}
		results[lp.SKUID] = risk.Result{Index: index, HighRisk: s.IsHighRisk(index)}
	}
	return results, nil
}

// ContributingFactors breaks the risk computation down for alert
// construction. Insufficient history is reported inside the Factors
// rather than as an error so callers can still log the inputs.
func (s *Service) ContributingFactors(ctx context.Context, skuID int64, current decimal.Decimal, releaseMentions int64) (risk.Factors, error) {
	if current.LessThanOrEqual(decimal.Zero) {
		return risk.Factors{}, errors.NewValidationError("current_price", "must be positive", current.String())
	}
	if releaseMentions < 0 {
		return risk.Factors{}, errors.NewValidationError("release_mentions", "must not be negative", releaseMentions)
	}

	baseline, err := s.trend.Baseline(ctx, skuID)
	if err != nil {
		if errors.IsInsufficientData(err) {
			return risk.Factors{
				CurrentPrice:    current,
				ReleaseMentions: releaseMentions,
				Threshold:       s.cfg.Threshold,
				Err:             err.Error(),
			}, nil
		}
		return risk.Factors{}, err
	}

	delta := current.Sub(baseline)
	pct := decimal.Zero
	if !baseline.IsZero() {
		pct = delta.Div(baseline).Mul(decimal.NewFromInt(100)).Round(2)
	}

	return risk.Factors{
		CurrentPrice:    current,
		BaselinePrice:   baseline,
		PriceDelta:      delta.Round(2),
		PriceChangePct:  pct,
		ReleaseMentions: releaseMentions,
		SentimentImpact: decimal.NewFromInt(releaseMentions).Mul(releaseMentionFactor),
		Threshold:       s.cfg.Threshold,
	}, nil
}
