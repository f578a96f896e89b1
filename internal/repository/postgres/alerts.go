package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"argus/internal/domain/risk"
	"argus/pkg/errors"
)

// Compile-time check
var _ risk.AlertRepository = (*AlertRepository)(nil)

// AlertRepository implements risk.AlertRepository using sqlx
type AlertRepository struct {
	db *sqlx.DB
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Insert persists an alert and fills in its id and timestamps
func (r *AlertRepository) Insert(ctx context.Context, alert *risk.Alert) error {
	query := `
		INSERT INTO risk_alerts (sku_id, risk_index, threshold, contributing_factors)
		VALUES ($1, $2, $3, $4)
		RETURNING id, acknowledged, created_at`

	err := r.db.QueryRowContext(ctx, query,
		alert.SKUID, alert.RiskIndex, alert.Threshold, alert.Factors,
	).Scan(&alert.ID, &alert.Acknowledged, &alert.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "insert alert")
	}

	return nil
}

// ExistsSince reports whether the SKU already has an alert created at or
// after the given time. Used for duplicate suppression.
func (r *AlertRepository) ExistsSince(ctx context.Context, skuID int64, since time.Time) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM risk_alerts WHERE sku_id = $1 AND created_at >= $2)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, skuID, since); err != nil {
		return false, errors.Wrap(err, "check alert exists")
	}

	return exists, nil
}

// ListRecent retrieves the most recent alerts, newest first
func (r *AlertRepository) ListRecent(ctx context.Context, limit int) ([]risk.Alert, error) {
	query := `
		SELECT id, sku_id, risk_index, threshold, contributing_factors, acknowledged, created_at
		FROM risk_alerts
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	var alerts []risk.Alert
	if err := r.db.SelectContext(ctx, &alerts, query, limit); err != nil {
		return nil, errors.Wrap(err, "list recent alerts")
	}

	return alerts, nil
}

// GetByID retrieves an alert by id
func (r *AlertRepository) GetByID(ctx context.Context, id int64) (*risk.Alert, error) {
	query := `
		SELECT id, sku_id, risk_index, threshold, contributing_factors, acknowledged, created_at
		FROM risk_alerts
		WHERE id = $1`

	var alert risk.Alert
	err := r.db.GetContext(ctx, &alert, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get alert by id")
	}

	return &alert, nil
}

// Acknowledge marks an alert as acknowledged
func (r *AlertRepository) Acknowledge(ctx context.Context, id int64) error {
	query := `UPDATE risk_alerts SET acknowledged = true WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return errors.Wrap(err, "acknowledge alert")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "acknowledge alert rows affected")
	}
	if affected == 0 {
		return errors.ErrNotFound
	}

	return nil
}

// CountUnacknowledged returns the number of open alerts
func (r *AlertRepository) CountUnacknowledged(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM risk_alerts WHERE acknowledged = false`)
	if err != nil {
		return 0, errors.Wrap(err, "count unacknowledged alerts")
	}

	return count, nil
}
