package risk

import (
	"context"
	"time"
)

// AlertRepository defines the interface for risk alert data access
type AlertRepository interface {
	Insert(ctx context.Context, alert *Alert) error

	// ExistsSince reports whether the SKU already has an alert created
	// at or after since; used to suppress duplicate alerts per window
	ExistsSince(ctx context.Context, skuID int64, since time.Time) (bool, error)

	ListRecent(ctx context.Context, limit int) ([]Alert, error)
	GetByID(ctx context.Context, id int64) (*Alert, error)
	Acknowledge(ctx context.Context, id int64) error
	CountUnacknowledged(ctx context.Context) (int64, error)
}
