package matcher

import (
	"context"
	"fmt"

	"argus/internal/domain/catalog"
	"argus/pkg/errors"
	"argus/pkg/logger"
)

// Action tells the load layer what to do with a normalized product
type Action string

const (
	ActionUseExisting Action = "use_existing"
	ActionCreateNew   Action = "create_new_sku"
	ActionError       Action = "error"
)

// Suggestion proposes creating a new SKU from a normalized product.
// Similar and Note are best-effort context for a human reviewer.
type Suggestion struct {
	Product  catalog.NormalizedProduct
	Category string
	Reason   string
	Similar  []catalog.SimilarSKU
	Note     string
}

// Decision is the outcome of matching one normalized product
type Decision struct {
	Action     Action
	SKUID      int64
	Suggestion *Suggestion
	Err        string
}

// Service matches normalized products against the SKU catalog
type Service struct {
	repository catalog.Repository
	log        *logger.Logger
}

// NewService creates a new catalog matcher
func NewService(repository catalog.Repository, log *logger.Logger) *Service {
	return &Service{
		repository: repository,
		log:        log,
	}
}

// FindExact looks up the SKU matching all five normalized fields.
// A missing SKU is a normal outcome, not an error.
func (s *Service) FindExact(ctx context.Context, product catalog.NormalizedProduct) (int64, bool, error) {
	sku, err := s.repository.FindExact(ctx, product)
	if err != nil {
		return 0, false, errors.NewMatchError("find exact", err)
	}
	if sku == nil {
		return 0, false, nil
	}
	return sku.ID, true, nil
}

// FindSimilar ranks catalog entries near the product: 3 for same brand
// and chipset, 2 for same chipset, 1 for same brand; ties broken by
// most recently created first.
func (s *Service) FindSimilar(ctx context.Context, product catalog.NormalizedProduct, limit int) ([]catalog.SimilarSKU, error) {
	similar, err := s.repository.FindSimilar(ctx, product, limit)
	if err != nil {
		return nil, errors.NewMatchError("find similar", err)
	}
	return similar, nil
}

// SuggestNew packages the product as a creation proposal. The similar
// list is advisory: a lookup failure is logged and the suggestion still
// stands.
func (s *Service) SuggestNew(ctx context.Context, product catalog.NormalizedProduct) *Suggestion {
	suggestion := &Suggestion{
		Product:  product,
		Category: catalog.DefaultCategory,
		Reason:   "no matching SKU found in catalog",
	}

	similar, err := s.FindSimilar(ctx, product, 3)
	if err != nil {
		s.log.Warnw("Failed to fetch similar SKUs for suggestion",
			"brand", product.Brand,
			"chipset", product.Chipset,
			"error", err,
		)
		return suggestion
	}

	suggestion.Similar = similar
	if len(similar) > 0 {
		suggestion.Note = fmt.Sprintf("%d similar SKUs exist, review before creating a duplicate", len(similar))
	}
	return suggestion
}

// MatchOrSuggest resolves a product to an existing SKU or proposes a
// new one. Storage failures surface as *errors.MatchError.
func (s *Service) MatchOrSuggest(ctx context.Context, product catalog.NormalizedProduct) (Decision, error) {
	id, found, err := s.FindExact(ctx, product)
	if err != nil {
		return Decision{}, err
	}
	if found {
		return Decision{Action: ActionUseExisting, SKUID: id}, nil
	}
	return Decision{Action: ActionCreateNew, Suggestion: s.SuggestNew(ctx, product)}, nil
}

// BatchMatch matches every product, converting per-item failures into
// error decisions so one bad item cannot abort the batch
func (s *Service) BatchMatch(ctx context.Context, products []catalog.NormalizedProduct) []Decision {
	decisions := make([]Decision, 0, len(products))
	for _, product := range products {
		decision, err := s.MatchOrSuggest(ctx, product)
		if err != nil {
			s.log.Warnw("SKU match failed, continuing batch",
				"brand", product.Brand,
				"model_name", product.ModelName,
				"error", err,
			)
			decision = Decision{Action: ActionError, Err: err.Error()}
		}
		decisions = append(decisions, decision)
	}
	return decisions
}
