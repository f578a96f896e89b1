package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"argus/internal/domain/catalog"
	"argus/pkg/errors"
)

// Compile-time check
var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository using sqlx
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// FindExact retrieves the SKU matching all five normalized fields.
// Returns (nil, nil) when no SKU matches.
func (r *CatalogRepository) FindExact(ctx context.Context, product catalog.NormalizedProduct) (*catalog.SKU, error) {
	query := `
		SELECT id, brand, chipset, model_name, vram, is_oc, category, created_at, updated_at
		FROM skus
		WHERE brand = $1 AND chipset = $2 AND model_name = $3 AND vram = $4 AND is_oc = $5`

	var sku catalog.SKU
	err := r.db.GetContext(ctx, &sku, query,
		product.Brand, product.Chipset, product.ModelName, product.VRAM, product.IsOC,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find exact sku")
	}

	return &sku, nil
}

// FindSimilar retrieves SKUs sharing the product's brand or chipset,
// best matches first. Score: 3 = brand and chipset, 2 = chipset only,
// 1 = brand only. Ties break on created_at DESC, then id DESC.
func (r *CatalogRepository) FindSimilar(ctx context.Context, product catalog.NormalizedProduct, limit int) ([]catalog.SimilarSKU, error) {
	query := `
		SELECT id, brand, chipset, model_name, vram, is_oc, category, created_at, updated_at,
		       CASE
		           WHEN brand = $1 AND chipset = $2 THEN 3
		           WHEN chipset = $2 THEN 2
		           WHEN brand = $1 THEN 1
		           ELSE 0
		       END AS score
		FROM skus
		WHERE brand = $1 OR chipset = $2
		ORDER BY score DESC, created_at DESC, id DESC
		LIMIT $3`

	var similar []catalog.SimilarSKU
	err := r.db.SelectContext(ctx, &similar, query, product.Brand, product.Chipset, limit)
	if err != nil {
		return nil, errors.Wrap(err, "find similar skus")
	}

	return similar, nil
}

// Create inserts a SKU. Concurrent creates of the same five-field key
// converge on one row: the conflict path bumps updated_at and still
// returns the winning row's id.
func (r *CatalogRepository) Create(ctx context.Context, sku *catalog.SKU) error {
	query := `
		INSERT INTO skus (brand, chipset, model_name, vram, is_oc, category)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (brand, chipset, model_name, vram, is_oc)
		DO UPDATE SET updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		sku.Brand, sku.Chipset, sku.ModelName, sku.VRAM, sku.IsOC, sku.Category,
	).Scan(&sku.ID, &sku.CreatedAt, &sku.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "create sku")
	}

	return nil
}

// GetByID retrieves a SKU by id
func (r *CatalogRepository) GetByID(ctx context.Context, id int64) (*catalog.SKU, error) {
	query := `
		SELECT id, brand, chipset, model_name, vram, is_oc, category, created_at, updated_at
		FROM skus
		WHERE id = $1`

	var sku catalog.SKU
	err := r.db.GetContext(ctx, &sku, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get sku by id")
	}

	return &sku, nil
}

// List retrieves SKUs with optional brand/chipset filters, newest first
func (r *CatalogRepository) List(ctx context.Context, filter catalog.ListFilter) ([]catalog.SKU, error) {
	query := `
		SELECT id, brand, chipset, model_name, vram, is_oc, category, created_at, updated_at
		FROM skus`

	var args []interface{}
	if filter.Brand != "" {
		args = append(args, filter.Brand)
		query += fmt.Sprintf(" WHERE brand = $%d", len(args))
	}
	if filter.Chipset != "" {
		clause := " WHERE"
		if len(args) > 0 {
			clause = " AND"
		}
		args = append(args, filter.Chipset)
		query += fmt.Sprintf("%s chipset = $%d", clause, len(args))
	}

	query += " ORDER BY created_at DESC, id DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var skus []catalog.SKU
	if err := r.db.SelectContext(ctx, &skus, query, args...); err != nil {
		return nil, errors.Wrap(err, "list skus")
	}

	return skus, nil
}

// Count returns the total number of SKUs
func (r *CatalogRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM skus`)
	if err != nil {
		return 0, errors.Wrap(err, "count skus")
	}

	return count, nil
}
