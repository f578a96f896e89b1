package postgres

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"argus/internal/testsupport"
)

// TestFixtures provides factory methods for creating test data
type TestFixtures struct {
	db *sqlx.DB
	t  *testing.T
}

// NewTestFixtures creates a new test fixtures factory
func NewTestFixtures(t *testing.T, db *sqlx.DB) *TestFixtures {
	t.Helper()
	return &TestFixtures{
		db: db,
		t:  t,
	}
}

// CreateSKU creates a test SKU in the database.
// The default model name is unique so repeated calls never collide on the
// five-field natural key.
func (f *TestFixtures) CreateSKU(opts ...func(*SKUFixture)) int64 {
	f.t.Helper()

	fixture := &SKUFixture{
		Brand:     "ASUS",
		Chipset:   "RTX 4070",
		ModelName: testsupport.UniqueName("TUF GAMING"),
		VRAM:      "12GB",
		IsOC:      false,
		Category:  "그래픽카드",
	}

	for _, opt := range opts {
		opt(fixture)
	}

	var id int64
	query := `INSERT INTO skus (brand, chipset, model_name, vram, is_oc, category, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
			  RETURNING id`

	err := f.db.QueryRow(query, fixture.Brand, fixture.Chipset, fixture.ModelName,
		fixture.VRAM, fixture.IsOC, fixture.Category).Scan(&id)
	require.NoError(f.t, err, "Failed to create test SKU")

	return id
}

// CreateAlert creates a test risk alert for the SKU
func (f *TestFixtures) CreateAlert(skuID int64, opts ...func(*AlertFixture)) int64 {
	f.t.Helper()

	fixture := &AlertFixture{
		RiskIndex:    decimal.NewFromFloat(-75000),
		Threshold:    decimal.NewFromFloat(-50000),
		Factors:      `{"release_mentions": 12}`,
		Acknowledged: false,
	}

	for _, opt := range opts {
		opt(fixture)
	}

	var id int64
	query := `INSERT INTO risk_alerts (sku_id, risk_index, threshold, contributing_factors, acknowledged, created_at)
			  VALUES ($1, $2, $3, $4, $5, NOW())
			  RETURNING id`

	err := f.db.QueryRow(query, skuID, fixture.RiskIndex, fixture.Threshold,
		fixture.Factors, fixture.Acknowledged).Scan(&id)
	require.NoError(f.t, err, "Failed to create test alert")

	return id
}

// Fixture option types
type SKUFixture struct {
	Brand     string
	Chipset   string
	ModelName string
	VRAM      string
	IsOC      bool
	Category  string
}

type AlertFixture struct {
	RiskIndex    decimal.Decimal
	Threshold    decimal.Decimal
	Factors      string
	Acknowledged bool
}

// Option builders for common customizations
func WithBrand(brand string) func(*SKUFixture) {
	return func(f *SKUFixture) {
		f.Brand = brand
	}
}

func WithChipset(chipset string) func(*SKUFixture) {
	return func(f *SKUFixture) {
		f.Chipset = chipset
	}
}

func WithModelName(name string) func(*SKUFixture) {
	return func(f *SKUFixture) {
		f.ModelName = name
	}
}

func WithVRAM(vram string) func(*SKUFixture) {
	return func(f *SKUFixture) {
		f.VRAM = vram
	}
}

func WithOC(isOC bool) func(*SKUFixture) {
	return func(f *SKUFixture) {
		f.IsOC = isOC
	}
}

func WithRiskIndex(index decimal.Decimal) func(*AlertFixture) {
	return func(f *AlertFixture) {
		f.RiskIndex = index
	}
}

func WithAcknowledged(acknowledged bool) func(*AlertFixture) {
	return func(f *AlertFixture) {
		f.Acknowledged = acknowledged
	}
}
