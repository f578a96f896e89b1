package pricing

import (
	"context"
	"time"
)

// Repository defines the interface for price history access (ClickHouse)
type Repository interface {
	Insert(ctx context.Context, observations []Observation) error

	// PricesBetween returns all prices recorded for the SKU in [from, to]
	PricesBetween(ctx context.Context, skuID int64, from, to time.Time) ([]float64, error)

	// History returns observations from the trailing window, newest first
	History(ctx context.Context, skuID int64, days int) ([]Observation, error)

	// EarliestRecordedAt returns the timestamp of the SKU's oldest
	// observation, or the zero time when the SKU has no history
	EarliestRecordedAt(ctx context.Context, skuID int64) (time.Time, error)

	// LatestPrices returns the most recent price per SKU, restricted to
	// SKUs with at least one observation at or after since
	LatestPrices(ctx context.Context, since time.Time) ([]LatestPrice, error)

	CountSince(ctx context.Context, since time.Time) (uint64, error)
}
