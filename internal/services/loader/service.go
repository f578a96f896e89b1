package loader

import (
	"context"
	"time"

	"argus/internal/domain/catalog"
	"argus/internal/domain/pricing"
	domainsentiment "argus/internal/domain/sentiment"
	"argus/internal/events"
	"argus/internal/services/matcher"
	"argus/internal/services/sentiment"
	"argus/pkg/errors"
	"argus/pkg/logger"
)

// Service applies match decisions and persists the ingestion output:
// catalog rows to Postgres, observations and mentions to ClickHouse.
type Service struct {
	catalog   catalog.Repository
	pricing   pricing.Repository
	mentions  domainsentiment.Repository
	scorer    *sentiment.Service
	publisher *events.Publisher
	log       *logger.Logger
}

// NewService creates a new loader
func NewService(
	catalogRepo catalog.Repository,
	pricingRepo pricing.Repository,
	mentionRepo domainsentiment.Repository,
	scorer *sentiment.Service,
	publisher *events.Publisher,
	log *logger.Logger,
) *Service {
	return &Service{
		catalog:   catalogRepo,
		pricing:   pricingRepo,
		mentions:  mentionRepo,
		scorer:    scorer,
		publisher: publisher,
		log:       log,
	}
}

// ApplyDecision resolves a match decision to a SKU id, creating the SKU
// when the matcher proposed one. Creation upserts on the five-field key,
// so two concurrent loads of the same product converge on one row; a
// catalog.skus.created event fires only for genuinely new rows.
func (s *Service) ApplyDecision(ctx context.Context, decision matcher.Decision) (int64, bool, error) {
	switch decision.Action {
	case matcher.ActionUseExisting:
		return decision.SKUID, false, nil

	case matcher.ActionCreateNew:
		if decision.Suggestion == nil {
			return 0, false, errors.Wrap(errors.ErrInvalidInput, "create decision without suggestion")
		}

		product := decision.Suggestion.Product
		sku := &catalog.SKU{
			Brand:     product.Brand,
			Chipset:   product.Chipset,
			ModelName: product.ModelName,
			VRAM:      product.VRAM,
			IsOC:      product.IsOC,
			Category:  decision.Suggestion.Category,
		}

		if err := s.catalog.Create(ctx, sku); err != nil {
			return 0, false, errors.Wrap(err, "create sku")
		}

		// A fresh row gets created_at == updated_at from the same
		// transaction timestamp; an upsert onto an existing row bumps
		// only updated_at.
		created := sku.CreatedAt.Equal(sku.UpdatedAt)
		if created {
			s.log.Infow("Created SKU",
				"sku_id", sku.ID,
				"brand", sku.Brand,
				"chipset", sku.Chipset,
				"model_name", sku.ModelName,
			)
			s.publisher.PublishSKUCreated(ctx, events.SKUCreated{
				SKUID:     sku.ID,
				Brand:     sku.Brand,
				Chipset:   sku.Chipset.String(),
				ModelName: sku.ModelName,
				VRAM:      sku.VRAM,
				IsOC:      sku.IsOC,
				Timestamp: time.Now().UTC(),
			})
		}

		return sku.ID, created, nil

	default:
		return 0, false, errors.Newf("unresolvable match decision: %s", decision.Err)
	}
}

// RecordPrices appends price observations for resolved SKUs
func (s *Service) RecordPrices(ctx context.Context, observations []pricing.Observation) error {
	if len(observations) == 0 {
		return nil
	}

	if err := s.pricing.Insert(ctx, observations); err != nil {
		return errors.Wrap(err, "insert observations")
	}

	s.log.Infow("  → Inserted price observations", "count", len(observations))
	return nil
}

// StoreMentions enriches mentions with their daily sentiment scores and
// batch-inserts them
func (s *Service) StoreMentions(ctx context.Context, mentions []domainsentiment.Mention) error {
	if len(mentions) == 0 {
		return nil
	}

	enriched := s.scorer.Enrich(mentions)

	if err := s.mentions.Insert(ctx, enriched); err != nil {
		return errors.Wrap(err, "insert mentions")
	}

	s.log.Infow("  → Inserted mentions", "count", len(enriched))
	return nil
}
