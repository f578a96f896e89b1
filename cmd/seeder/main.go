package main

import (
	"context"
	"flag"
	"math"
	"math/rand"
	"time"

	chclient "argus/internal/adapters/clickhouse"
	"argus/internal/adapters/config"
	pgclient "argus/internal/adapters/postgres"
	"argus/internal/domain/catalog"
	"argus/internal/domain/pricing"
	"argus/internal/domain/sentiment"
	chrepo "argus/internal/repository/clickhouse"
	pgrepo "argus/internal/repository/postgres"
	sentimentservice "argus/internal/services/sentiment"
	"argus/pkg/logger"
)

const (
	historyDays = 14
	seedSource  = "danawa"

	// Fixed seed keeps the synthetic history reproducible across runs
	jitterSeed = 42
)

// demoSKU pairs a catalog entry with a launch-window base price in KRW
type demoSKU struct {
	brand     string
	chipset   catalog.Chipset
	modelName string
	vram      string
	isOC      bool
	basePrice float64
}

var demoSKUs = []demoSKU{
	{"MSI", catalog.ChipsetRTX4070TiSuper, "게이밍 X 슬림", "16GB", true, 1250000},
	{"GIGABYTE", catalog.ChipsetRTX4070Super, "윈드포스", "12GB", true, 920000},
	{"ASUS", catalog.ChipsetRTX4070, "듀얼", "12GB", false, 780000},
	{"ZOTAC", catalog.ChipsetRTX4070Super, "트리니티", "12GB", false, 890000},
	{"PALIT", catalog.ChipsetRTX4070, "듀얼", "12GB", false, 750000},
	{"EMTEK", catalog.ChipsetRTX4070Ti, "미라클 화이트", "12GB", true, 1050000},
	{"GALAX", catalog.ChipsetRTX4070Super, "EX 게이머 화이트", "12GB", true, 910000},
	{"INNO3D", catalog.ChipsetRTX4070TiSuper, "X3", "16GB", false, 1190000},
}

// demoMention seeds a community signal some days back
type demoMention struct {
	keyword   string
	title     string
	url       string
	subreddit string
	daysAgo   int
}

var demoMentions = []demoMention{
	{"New Release", "RTX 5070 specs allegedly finalized", "https://reddit.com/r/nvidia/comments/seed01", "nvidia", 1},
	{"New Release", "Next gen launch window narrowed to Q1", "https://reddit.com/r/hardware/comments/seed02", "hardware", 2},
	{"New Release", "Board partners preparing new SKU lineup", "https://reddit.com/r/nvidia/comments/seed03", "nvidia", 4},
	{"Leak", "Leaked benchmark shows 30% uplift over 4070 Ti", "https://reddit.com/r/nvidia/comments/seed04", "nvidia", 2},
	{"Leak", "Shipping manifest hints at new GPU dies", "https://reddit.com/r/hardware/comments/seed05", "hardware", 5},
	{"5070 release date", "When is the 5070 actually coming?", "https://reddit.com/r/nvidia/comments/seed06", "nvidia", 1},
	{"5070 release date", "5070 release date megathread", "https://reddit.com/r/buildapc/comments/seed07", "buildapc", 3},
	{"Price Drop", "4070 Super dropped below MSRP at two retailers", "https://reddit.com/r/buildapc/comments/seed08", "buildapc", 2},
	{"Price Drop", "Seeing big discounts on 4070 Ti Super", "https://reddit.com/r/nvidia/comments/seed09", "nvidia", 6},
	{"Issues", "Coil whine on new 4070 card, RMA?", "https://reddit.com/r/nvidia/comments/seed10", "nvidia", 3},
	{"Used Market", "Used 4070 prices falling fast", "https://reddit.com/r/hardware/comments/seed11", "hardware", 4},
	{"Used Market", "Is a used 4070 Ti worth it right now?", "https://reddit.com/r/buildapc/comments/seed12", "buildapc", 5},
}

func main() {
	dryRun := flag.Bool("dry-run", false, "List seed data without writing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infow("Starting seeder",
		"dry_run", *dryRun,
		"skus", len(demoSKUs),
		"history_days", historyDays,
		"mentions", len(demoMentions),
	)

	if *dryRun {
		log.Info("✅ Dry-run mode: seed data validated")
		return
	}

	pg, err := pgclient.NewClient(cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer pg.Close()

	ch, err := chclient.NewClient(cfg.ClickHouse)
	if err != nil {
		log.Fatalf("Failed to connect to ClickHouse: %v", err)
	}
	defer ch.Close()

	catalogRepo := pgrepo.NewCatalogRepository(pg.DB())
	pricingRepo := chrepo.NewPricingRepository(ch.Conn())
	mentionRepo := chrepo.NewMentionRepository(ch.Conn())

	ctx := context.Background()

	existing, err := catalogRepo.Count(ctx)
	if err != nil {
		log.Fatalf("Failed to count catalog: %v", err)
	}
	if existing > 0 {
		log.Infow("Catalog already seeded, skipping", "sku_count", existing)
		return
	}

	skus, err := seedCatalog(ctx, catalogRepo, log)
	if err != nil {
		log.Fatalf("Failed to seed catalog: %v", err)
	}

	if err := seedPriceHistory(ctx, pricingRepo, skus, log); err != nil {
		log.Fatalf("Failed to seed price history: %v", err)
	}

	if err := seedMentions(ctx, mentionRepo, log); err != nil {
		log.Fatalf("Failed to seed mentions: %v", err)
	}

	log.Info("✅ All seeds applied successfully")
}

func seedCatalog(ctx context.Context, repo catalog.Repository, log *logger.Logger) ([]catalog.SKU, error) {
	skus := make([]catalog.SKU, 0, len(demoSKUs))
	for _, d := range demoSKUs {
		sku := catalog.SKU{
			Brand:     d.brand,
			Chipset:   d.chipset,
			ModelName: d.modelName,
			VRAM:      d.vram,
			IsOC:      d.isOC,
			Category:  catalog.DefaultCategory,
		}
		if err := repo.Create(ctx, &sku); err != nil {
			return nil, err
		}
		skus = append(skus, sku)
	}

	log.Infow("✅ Catalog seeded", "skus", len(skus))
	return skus, nil
}

// seedPriceHistory writes one observation per SKU per day over the
// trailing window. Prices drift slightly downward with small jitter so
// the baseline and trend queries have realistic data to work with.
func seedPriceHistory(ctx context.Context, repo pricing.Repository, skus []catalog.SKU, log *logger.Logger) error {
	rng := rand.New(rand.NewSource(jitterSeed))
	now := time.Now()

	observations := make([]pricing.Observation, 0, len(skus)*historyDays)
	for i, sku := range skus {
		base := demoSKUs[i].basePrice
		for day := historyDays; day >= 1; day-- {
			drift := 1.0 - 0.002*float64(historyDays-day)
			jitter := 1.0 + (rng.Float64()-0.5)*0.02
			price := math.Round(base*drift*jitter/100) * 100

			observations = append(observations, pricing.Observation{
				SKUID:      sku.ID,
				Price:      price,
				Source:     seedSource,
				URL:        "https://prod.danawa.com/info/?pcode=seed",
				RecordedAt: now.AddDate(0, 0, -day),
			})
		}
	}

	if err := repo.Insert(ctx, observations); err != nil {
		return err
	}

	log.Infow("✅ Price history seeded", "observations", len(observations))
	return nil
}

func seedMentions(ctx context.Context, repo sentiment.Repository, log *logger.Logger) error {
	now := time.Now()

	mentions := make([]sentiment.Mention, 0, len(demoMentions))
	for _, d := range demoMentions {
		mentions = append(mentions, sentiment.Mention{
			Keyword:     d.keyword,
			PostTitle:   d.title,
			PostURL:     d.url,
			Subreddit:   d.subreddit,
			PostedAt:    now.AddDate(0, 0, -d.daysAgo),
			CollectedAt: now,
		})
	}

	scorer := sentimentservice.NewService(sentimentservice.DefaultConfig())
	mentions = scorer.Enrich(mentions)

	if err := repo.Insert(ctx, mentions); err != nil {
		return err
	}

	log.Infow("✅ Mentions seeded", "mentions", len(mentions))
	return nil
}
