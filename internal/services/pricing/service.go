package pricing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"argus/internal/domain/pricing"
	"argus/pkg/errors"
	"argus/pkg/logger"
)

// Baseline window: prices recorded 6 to 8 days ago, both ends inclusive.
// The window is centered 7 days before now so week-old pricing anchors
// the trend comparison.
const (
	baselineWindowStartDays = 8
	baselineWindowEndDays   = 6
	baselineRequiredDays    = 7
)

// Service computes price baselines and trends from observation history
type Service struct {
	repository pricing.Repository
	log        *logger.Logger
}

// NewService creates a new price trend analyzer
func NewService(repository pricing.Repository, log *logger.Logger) *Service {
	return &Service{
		repository: repository,
		log:        log,
	}
}

// Baseline returns the mean of all prices observed in the 6-8 days ago
// window. An empty window is *errors.InsufficientDataError: no data is
// distinguishable from a zero-value baseline.
func (s *Service) Baseline(ctx context.Context, skuID int64) (decimal.Decimal, error) {
	now := time.Now()
	from := now.AddDate(0, 0, -baselineWindowStartDays)
	to := now.AddDate(0, 0, -baselineWindowEndDays)

	prices, err := s.repository.PricesBetween(ctx, skuID, from, to)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "fetch baseline prices for SKU %d", skuID)
	}
	if len(prices) == 0 {
		return decimal.Zero, errors.NewInsufficientDataError(skuID, baselineRequiredDays)
	}

	sum := decimal.Zero
	for _, price := range prices {
		sum = sum.Add(decimal.NewFromFloat(price))
	}
	return sum.Div(decimal.NewFromInt(int64(len(prices)))), nil
}

// PercentChange returns the percent difference between the current
// price and the baseline, rounded to 2 decimal places
func (s *Service) PercentChange(ctx context.Context, skuID int64, current decimal.Decimal) (decimal.Decimal, error) {
	if current.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, errors.NewValidationError("current_price", "must be positive", current.String())
	}

	baseline, err := s.Baseline(ctx, skuID)
	if err != nil {
		return decimal.Zero, err
	}
	if baseline.IsZero() {
		return decimal.Zero, errors.NewValidationError("baseline_price", "baseline is zero, percent change undefined", baseline.String())
	}

	return current.Sub(baseline).Div(baseline).Mul(decimal.NewFromInt(100)).Round(2), nil
}

// History returns the SKU's observations over the trailing window,
// newest first
func (s *Service) History(ctx context.Context, skuID int64, days int) ([]pricing.Observation, error) {
	observations, err := s.repository.History(ctx, skuID, days)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch price history for SKU %d", skuID)
	}
	return observations, nil
}

// HasSufficientData reports whether the SKU's earliest observation is
// at least requiredDays old. Storage failures propagate: a collaborator
// outage must not read as "no data".
func (s *Service) HasSufficientData(ctx context.Context, skuID int64, requiredDays int) (bool, error) {
	earliest, err := s.repository.EarliestRecordedAt(ctx, skuID)
	if err != nil {
		return false, errors.Wrapf(err, "fetch earliest observation for SKU %d", skuID)
	}
	if earliest.IsZero() {
		return false, nil
	}
	cutoff := time.Now().AddDate(0, 0, -requiredDays)
	return !earliest.After(cutoff), nil
}

// LatestPrices returns the most recent observation per SKU, restricted
// to SKUs active since the given time
func (s *Service) LatestPrices(ctx context.Context, since time.Time) ([]pricing.LatestPrice, error) {
	latest, err := s.repository.LatestPrices(ctx, since)
	if err != nil {
		return nil, errors.Wrap(err, "fetch latest prices")
	}
	return latest, nil
}
