package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argus/internal/domain/catalog"
	"argus/internal/testsupport"
	"argus/pkg/errors"
)

func uniqueBrand() string {
	return testsupport.UniqueName("BRAND")
}

func TestCatalogRepository_FindExact(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)

	fixtures := NewTestFixtures(t, testDB.DB())
	repo := NewCatalogRepository(testDB.DB())
	ctx := context.Background()

	brand := uniqueBrand()
	model := testsupport.UniqueName("GAMING X")
	id := fixtures.CreateSKU(WithBrand(brand), WithModelName(model), WithOC(true))

	product := catalog.NormalizedProduct{
		Brand:     brand,
		Chipset:   catalog.ChipsetRTX4070,
		ModelName: model,
		VRAM:      "12GB",
		IsOC:      true,
	}

	sku, err := repo.FindExact(ctx, product)
	require.NoError(t, err)
	require.NotNil(t, sku)
	assert.Equal(t, id, sku.ID)
	assert.Equal(t, brand, sku.Brand)
	assert.True(t, sku.IsOC)

	// Any field differing means no match, not an error
	product.IsOC = false
	sku, err = repo.FindExact(ctx, product)
	require.NoError(t, err)
	assert.Nil(t, sku)
}

func TestCatalogRepository_FindSimilar(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)

	fixtures := NewTestFixtures(t, testDB.DB())
	repo := NewCatalogRepository(testDB.DB())
	ctx := context.Background()

	brand := uniqueBrand()
	otherBrand := uniqueBrand()

	// Distinct chipsets isolate the three score tiers
	bothID := fixtures.CreateSKU(WithBrand(brand), WithChipset("RTX 4070 Ti"))
	chipsetOnlyID := fixtures.CreateSKU(WithBrand(otherBrand), WithChipset("RTX 4070 Ti"))
	brandOnlyID := fixtures.CreateSKU(WithBrand(brand), WithChipset("RTX 4070 Super"))

	product := catalog.NormalizedProduct{
		Brand:     brand,
		Chipset:   catalog.ChipsetRTX4070Ti,
		ModelName: "DOES NOT EXIST",
		VRAM:      "12GB",
	}

	similar, err := repo.FindSimilar(ctx, product, 100)
	require.NoError(t, err)

	scores := map[int64]int{}
	var order []int64
	for _, s := range similar {
		if s.ID == bothID || s.ID == chipsetOnlyID || s.ID == brandOnlyID {
			scores[s.ID] = s.Score
			order = append(order, s.ID)
		}
	}

	require.Len(t, scores, 3)
	assert.Equal(t, 3, scores[bothID])
	assert.Equal(t, 2, scores[chipsetOnlyID])
	assert.Equal(t, 1, scores[brandOnlyID])
	assert.Equal(t, []int64{bothID, chipsetOnlyID, brandOnlyID}, order)
}

func TestCatalogRepository_Create(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)

	repo := NewCatalogRepository(testDB.DB())
	ctx := context.Background()

	sku := &catalog.SKU{
		Brand:     uniqueBrand(),
		Chipset:   "RTX 4070 Ti Super",
		ModelName: testsupport.UniqueName("AERO OC"),
		VRAM:      "16GB",
		IsOC:      true,
		Category:  catalog.DefaultCategory,
	}

	err := repo.Create(ctx, sku)
	require.NoError(t, err)
	assert.Positive(t, sku.ID)
	assert.False(t, sku.CreatedAt.IsZero())

	// Creating the same five-field key again converges on the same row
	duplicate := &catalog.SKU{
		Brand:     sku.Brand,
		Chipset:   sku.Chipset,
		ModelName: sku.ModelName,
		VRAM:      sku.VRAM,
		IsOC:      sku.IsOC,
		Category:  catalog.DefaultCategory,
	}
	err = repo.Create(ctx, duplicate)
	require.NoError(t, err)
	assert.Equal(t, sku.ID, duplicate.ID)
}

func TestCatalogRepository_GetByID(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)

	fixtures := NewTestFixtures(t, testDB.DB())
	repo := NewCatalogRepository(testDB.DB())
	ctx := context.Background()

	id := fixtures.CreateSKU()

	sku, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, sku.ID)
	assert.Equal(t, "그래픽카드", sku.Category)

	_, err = repo.GetByID(ctx, -1)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestCatalogRepository_List(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)

	fixtures := NewTestFixtures(t, testDB.DB())
	repo := NewCatalogRepository(testDB.DB())
	ctx := context.Background()

	brand := uniqueBrand()
	fixtures.CreateSKU(WithBrand(brand), WithChipset("RTX 4070"))
	fixtures.CreateSKU(WithBrand(brand), WithChipset("RTX 4070 Super"))

	skus, err := repo.List(ctx, catalog.ListFilter{Brand: brand})
	require.NoError(t, err)
	assert.Len(t, skus, 2)

	skus, err = repo.List(ctx, catalog.ListFilter{Brand: brand, Chipset: "RTX 4070 Super"})
	require.NoError(t, err)
	require.Len(t, skus, 1)
	assert.Equal(t, catalog.ChipsetRTX4070Super, skus[0].Chipset)

	skus, err = repo.List(ctx, catalog.ListFilter{Brand: brand, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, skus, 1)
}

func TestCatalogRepository_Count(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)

	fixtures := NewTestFixtures(t, testDB.DB())
	repo := NewCatalogRepository(testDB.DB())
	ctx := context.Background()

	before, err := repo.Count(ctx)
	require.NoError(t, err)

	fixtures.CreateSKU()
	fixtures.CreateSKU()

	after, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+2, after)
}
