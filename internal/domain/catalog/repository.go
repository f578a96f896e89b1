package catalog

import (
	"context"
)

// Repository defines the interface for catalog data access (Postgres)
type Repository interface {
	// FindExact looks up a SKU by equality on all five normalized fields.
	// Returns (nil, nil) when no SKU matches; absence is a normal outcome.
	FindExact(ctx context.Context, product NormalizedProduct) (*SKU, error)

	// FindSimilar ranks catalog entries sharing brand or chipset with the
	// product, best score first, most recently created first within a score.
	FindSimilar(ctx context.Context, product NormalizedProduct, limit int) ([]SimilarSKU, error)

	Create(ctx context.Context, sku *SKU) error
	GetByID(ctx context.Context, id int64) (*SKU, error)
	List(ctx context.Context, filter ListFilter) ([]SKU, error)
	Count(ctx context.Context) (int64, error)
}
