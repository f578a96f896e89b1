package pricing

import "time"

// Observation is a single observed price for a SKU (append-only history)
type Observation struct {
	SKUID      int64     `ch:"sku_id" json:"sku_id"`
	Price      float64   `ch:"price" json:"price"`
	Source     string    `ch:"source" json:"source"`
	URL        string    `ch:"url" json:"url"`
	RecordedAt time.Time `ch:"recorded_at" json:"recorded_at"`
}

// LatestPrice is the most recent observation per SKU
type LatestPrice struct {
	SKUID      int64     `ch:"sku_id" json:"sku_id"`
	Price      float64   `ch:"price" json:"price"`
	RecordedAt time.Time `ch:"recorded_at" json:"recorded_at"`
}
