package clickhouse

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"argus/internal/domain/pricing"
	"argus/pkg/errors"
)

// Compile-time check
var _ pricing.Repository = (*PricingRepository)(nil)

// PricingRepository implements pricing.Repository using ClickHouse
type PricingRepository struct {
	conn driver.Conn
}

// NewPricingRepository creates a new pricing repository
func NewPricingRepository(conn driver.Conn) *PricingRepository {
	return &PricingRepository{conn: conn}
}

// Insert appends price observations in batch
func (r *PricingRepository) Insert(ctx context.Context, observations []pricing.Observation) error {
	if len(observations) == 0 {
		return nil
	}

	batch, err := r.conn.PrepareBatch(ctx, `
		INSERT INTO price_observations (sku_id, price, source, url, recorded_at)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare batch")
	}

	for _, obs := range observations {
		err := batch.Append(obs.SKUID, obs.Price, obs.Source, obs.URL, obs.RecordedAt)
		if err != nil {
			return errors.Wrap(err, "failed to append observation")
		}
	}

	return batch.Send()
}

// PricesBetween retrieves all prices recorded for the SKU in [from, to]
func (r *PricingRepository) PricesBetween(ctx context.Context, skuID int64, from, to time.Time) ([]float64, error) {
	query := `
		SELECT price FROM price_observations
		WHERE sku_id = $1 AND recorded_at >= $2 AND recorded_at <= $3
		ORDER BY recorded_at ASC`

	rows, err := r.conn.Query(ctx, query, skuID, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "query prices between")
	}
	defer rows.Close()

	var prices []float64
	for rows.Next() {
		var price float64
		if err := rows.Scan(&price); err != nil {
			return nil, errors.Wrap(err, "scan price")
		}
		prices = append(prices, price)
	}

	return prices, rows.Err()
}

// History retrieves observations from the trailing window, newest first
func (r *PricingRepository) History(ctx context.Context, skuID int64, days int) ([]pricing.Observation, error) {
	var observations []pricing.Observation

	query := `
		SELECT sku_id, price, source, url, recorded_at
		FROM price_observations
		WHERE sku_id = $1 AND recorded_at >= $2
		ORDER BY recorded_at DESC`

	since := time.Now().UTC().AddDate(0, 0, -days)
	err := r.conn.Select(ctx, &observations, query, skuID, since)
	return observations, err
}

// EarliestRecordedAt returns the timestamp of the SKU's oldest observation.
// min() over an empty set yields the epoch, so the row count decides whether
// to report the zero time instead.
func (r *PricingRepository) EarliestRecordedAt(ctx context.Context, skuID int64) (time.Time, error) {
	query := `SELECT count(), min(recorded_at) FROM price_observations WHERE sku_id = $1`

	var (
		count    uint64
		earliest time.Time
	)
	if err := r.conn.QueryRow(ctx, query, skuID).Scan(&count, &earliest); err != nil {
		return time.Time{}, errors.Wrap(err, "query earliest observation")
	}

	if count == 0 {
		return time.Time{}, nil
	}

	return earliest, nil
}

// LatestPrices retrieves the most recent price per SKU among SKUs observed
// at or after since
func (r *PricingRepository) LatestPrices(ctx context.Context, since time.Time) ([]pricing.LatestPrice, error) {
	var latest []pricing.LatestPrice

	query := `
		SELECT
			sku_id,
			argMax(price, recorded_at) AS price,
			max(recorded_at) AS recorded_at
		FROM price_observations
		WHERE recorded_at >= $1
		GROUP BY sku_id
		ORDER BY sku_id ASC`

	err := r.conn.Select(ctx, &latest, query, since)
	return latest, err
}

// CountSince returns the number of observations recorded at or after since
func (r *PricingRepository) CountSince(ctx context.Context, since time.Time) (uint64, error) {
	var count uint64

	query := `SELECT count() FROM price_observations WHERE recorded_at >= $1`
	if err := r.conn.QueryRow(ctx, query, since).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "count observations")
	}

	return count, nil
}
