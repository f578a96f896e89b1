package matcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argus/internal/domain/catalog"
	"argus/pkg/errors"
	"argus/pkg/logger"
)

// stubRepo is an in-memory catalog.Repository for matcher tests
type stubRepo struct {
	skus       []catalog.SKU
	exactErr   error
	similarErr error
}

func (r *stubRepo) FindExact(_ context.Context, p catalog.NormalizedProduct) (*catalog.SKU, error) {
	if r.exactErr != nil {
		return nil, r.exactErr
	}
	for i := range r.skus {
		if r.skus[i].Fields() == p {
			return &r.skus[i], nil
		}
	}
	return nil, nil
}

func (r *stubRepo) FindSimilar(_ context.Context, p catalog.NormalizedProduct, limit int) ([]catalog.SimilarSKU, error) {
	if r.similarErr != nil {
		return nil, r.similarErr
	}
	var out []catalog.SimilarSKU
	for _, sku := range r.skus {
		score := 0
		switch {
		case sku.Brand == p.Brand && sku.Chipset == p.Chipset:
			score = 3
		case sku.Chipset == p.Chipset:
			score = 2
		case sku.Brand == p.Brand:
			score = 1
		default:
			continue
		}
		out = append(out, catalog.SimilarSKU{SKU: sku, Score: score})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *stubRepo) Create(_ context.Context, sku *catalog.SKU) error {
	sku.ID = int64(len(r.skus) + 1)
	r.skus = append(r.skus, *sku)
	return nil
}

func (r *stubRepo) GetByID(_ context.Context, id int64) (*catalog.SKU, error) {
	for i := range r.skus {
		if r.skus[i].ID == id {
			return &r.skus[i], nil
		}
	}
	return nil, errors.ErrNotFound
}

func (r *stubRepo) List(_ context.Context, _ catalog.ListFilter) ([]catalog.SKU, error) {
	return r.skus, nil
}

func (r *stubRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.skus)), nil
}

func testProduct() catalog.NormalizedProduct {
	return catalog.NormalizedProduct{
		Brand:     "ASUS",
		Chipset:   catalog.ChipsetRTX4070Super,
		ModelName: "DUAL",
		VRAM:      "12GB",
		IsOC:      true,
	}
}

func seededRepo() *stubRepo {
	return &stubRepo{
		skus: []catalog.SKU{
			{
				ID:        1,
				Brand:     "ASUS",
				Chipset:   catalog.ChipsetRTX4070Super,
				ModelName: "DUAL",
				VRAM:      "12GB",
				IsOC:      true,
				Category:  catalog.DefaultCategory,
				CreatedAt: time.Now(),
			},
			{
				ID:        2,
				Brand:     "MSI",
				Chipset:   catalog.ChipsetRTX4070,
				ModelName: "Ventus 2X",
				VRAM:      "12GB",
				IsOC:      false,
				Category:  catalog.DefaultCategory,
				CreatedAt: time.Now(),
			},
		},
	}
}

func TestService_FindExact(t *testing.T) {
	svc := NewService(seededRepo(), logger.Get())
	ctx := context.Background()

	t.Run("hit", func(t *testing.T) {
		id, found, err := svc.FindExact(ctx, testProduct())
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, int64(1), id)
	})

	t.Run("miss is not an error", func(t *testing.T) {
		p := testProduct()
		p.VRAM = "16GB"
		id, found, err := svc.FindExact(ctx, p)
		require.NoError(t, err)
		assert.False(t, found)
		assert.Zero(t, id)
	})

	t.Run("storage failure wraps into MatchError", func(t *testing.T) {
		broken := NewService(&stubRepo{exactErr: errors.ErrUnavailable}, logger.Get())
		_, _, err := broken.FindExact(ctx, testProduct())
		require.Error(t, err)

		var matchErr *errors.MatchError
		require.True(t, errors.As(err, &matchErr))
		assert.True(t, errors.Is(err, errors.ErrUnavailable))
	})
}

func TestService_MatchOrSuggest(t *testing.T) {
	ctx := context.Background()

	t.Run("existing SKU", func(t *testing.T) {
		svc := NewService(seededRepo(), logger.Get())
		decision, err := svc.MatchOrSuggest(ctx, testProduct())
		require.NoError(t, err)
		assert.Equal(t, ActionUseExisting, decision.Action)
		assert.Equal(t, int64(1), decision.SKUID)
		assert.Nil(t, decision.Suggestion)
	})

	t.Run("unknown product suggests creation", func(t *testing.T) {
		svc := NewService(seededRepo(), logger.Get())
		p := testProduct()
		p.ModelName = "TUF Gaming"

		decision, err := svc.MatchOrSuggest(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, ActionCreateNew, decision.Action)

		require.NotNil(t, decision.Suggestion)
		assert.Equal(t, p, decision.Suggestion.Product)
		assert.Equal(t, catalog.DefaultCategory, decision.Suggestion.Category)
		assert.Equal(t, "no matching SKU found in catalog", decision.Suggestion.Reason)
		assert.NotEmpty(t, decision.Suggestion.Similar)
		assert.NotEmpty(t, decision.Suggestion.Note)
	})

	t.Run("similar lookup failure never fails the suggestion", func(t *testing.T) {
		repo := seededRepo()
		repo.similarErr = errors.ErrUnavailable
		svc := NewService(repo, logger.Get())
		p := testProduct()
		p.ModelName = "TUF Gaming"

		decision, err := svc.MatchOrSuggest(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, ActionCreateNew, decision.Action)
		require.NotNil(t, decision.Suggestion)
		assert.Empty(t, decision.Suggestion.Similar)
		assert.Empty(t, decision.Suggestion.Note)
	})
}

func TestService_BatchMatch_ContinuesPastFailures(t *testing.T) {
	ctx := context.Background()

	known := testProduct()
	unknown := testProduct()
	unknown.Brand = "GIGABYTE"
	unknown.ModelName = "WINDFORCE"

	// fail only the middle item
	calls := 0
	repo := seededRepo()
	failing := &flakyRepo{stubRepo: repo, failOn: 2, calls: &calls}

	svc := NewService(failing, logger.Get())
	decisions := svc.BatchMatch(ctx, []catalog.NormalizedProduct{known, unknown, unknown})

	require.Len(t, decisions, 3)
	assert.Equal(t, ActionUseExisting, decisions[0].Action)
	assert.Equal(t, ActionError, decisions[1].Action)
	assert.NotEmpty(t, decisions[1].Err)
	assert.Equal(t, ActionCreateNew, decisions[2].Action)
}

// flakyRepo fails FindExact on the n-th call only
type flakyRepo struct {
	*stubRepo
	failOn int
	calls  *int
}

func (r *flakyRepo) FindExact(ctx context.Context, p catalog.NormalizedProduct) (*catalog.SKU, error) {
	*r.calls++
	if *r.calls == r.failOn {
		return nil, errors.ErrUnavailable
	}
	return r.stubRepo.FindExact(ctx, p)
}
