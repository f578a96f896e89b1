package main

// Script to backfill historical price observations from a CSV export
// into ClickHouse. Useful when migrating from a previous tracking
// setup or restoring a pruned history.
//
// CSV columns: sku_id,price,recorded_at
// recorded_at accepts RFC3339, "2006-01-02 15:04:05" or "2006-01-02".
// A header row is skipped when the first column reads "sku_id".
//
// Usage:
//   go run scripts/backfill_price_history.go --file prices.csv --source danawa --batch 1000

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	chclient "argus/internal/adapters/clickhouse"
	"argus/internal/adapters/config"
	pgclient "argus/internal/adapters/postgres"
	"argus/internal/domain/pricing"
	chrepo "argus/internal/repository/clickhouse"
	pgrepo "argus/internal/repository/postgres"
	"argus/pkg/logger"
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func main() {
	file := flag.String("file", "", "CSV file with sku_id,price,recorded_at rows")
	source := flag.String("source", "danawa", "Source label for backfilled observations")
	batchSize := flag.Int("batch", 1000, "Batch size for ClickHouse inserts")
	skipUnknown := flag.Bool("skip-unknown", false, "Skip rows whose SKU is not in the catalog instead of aborting")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: backfill_price_history --file prices.csv [--source danawa] [--batch 1000]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infow("Starting price history backfill",
		"file", *file,
		"source", *source,
		"batch_size", *batchSize,
	)

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

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("Failed to open CSV: %v", err)
	}
	defer f.Close()

	ctx := context.Background()
	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 3

	known := map[int64]bool{}
	batch := make([]pricing.Observation, 0, *batchSize)
	var line, inserted, skipped int

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("Failed to read CSV at line %d: %v", line+1, err)
		}
		line++

		if line == 1 && record[0] == "sku_id" {
			continue
		}

		obs, err := parseRow(record, *source)
		if err != nil {
			log.Fatalf("Invalid row at line %d: %v", line, err)
		}

		exists, ok := known[obs.SKUID]
		if !ok {
			_, err := catalogRepo.GetByID(ctx, obs.SKUID)
			exists = err == nil
			if err != nil && !*skipUnknown {
				log.Fatalf("SKU %d at line %d not found in catalog: %v", obs.SKUID, line, err)
			}
			known[obs.SKUID] = exists
		}
		if !exists {
			skipped++
			continue
		}

		batch = append(batch, obs)
		if len(batch) >= *batchSize {
			if err := pricingRepo.Insert(ctx, batch); err != nil {
				log.Fatalf("Failed to insert batch: %v", err)
			}
			inserted += len(batch)
			log.Infow("Batch inserted", "total", inserted)
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := pricingRepo.Insert(ctx, batch); err != nil {
			log.Fatalf("Failed to insert final batch: %v", err)
		}
		inserted += len(batch)
	}

	log.Infow("✅ Backfill complete",
		"rows_read", line,
		"inserted", inserted,
		"skipped_unknown", skipped,
	)
}

func parseRow(record []string, source string) (pricing.Observation, error) {
	skuID, err := strconv.ParseInt(record[0], 10, 64)
	if err != nil {
		return pricing.Observation{}, fmt.Errorf("sku_id %q: %w", record[0], err)
	}

	price, err := strconv.ParseFloat(record[1], 64)
	if err != nil {
		return pricing.Observation{}, fmt.Errorf("price %q: %w", record[1], err)
	}
	if price <= 0 {
		return pricing.Observation{}, fmt.Errorf("price %q must be positive", record[1])
	}

	var recordedAt time.Time
	for _, layout := range timeLayouts {
		recordedAt, err = time.Parse(layout, record[2])
		if err == nil {
			break
		}
	}
	if err != nil {
		return pricing.Observation{}, fmt.Errorf("recorded_at %q: unrecognized format", record[2])
	}

	return pricing.Observation{
		SKUID:      skuID,
		Price:      price,
		Source:     source,
		URL:        "",
		RecordedAt: recordedAt,
	}, nil
}
