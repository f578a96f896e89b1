package risk

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Factors breaks a risk index down for alert-message construction.
// Reason is filled by the alert dispatcher, so the persisted JSONB carries
// the cause alongside the numbers. When the underlying history is
// insufficient, Err carries the failure and only the input fields are
// populated.
type Factors struct {
	CurrentPrice    decimal.Decimal `json:"current_price"`
	BaselinePrice   decimal.Decimal `json:"baseline_price"`
	PriceDelta      decimal.Decimal `json:"price_delta"`
	PriceChangePct  decimal.Decimal `json:"price_change_pct"`
	ReleaseMentions int64           `json:"release_mentions"`
	SentimentImpact decimal.Decimal `json:"sentiment_impact"`
	Threshold       decimal.Decimal `json:"threshold"`
	Reason          string          `json:"reason,omitempty"`
	Err             string          `json:"error,omitempty"`
}

// Result is the risk decision for one SKU
type Result struct {
	Index    decimal.Decimal `json:"risk_index"`
	HighRisk bool            `json:"high_risk"`
}

// Alert is a persisted high-risk notification
type Alert struct {
	ID           int64           `db:"id" json:"id"`
	SKUID        int64           `db:"sku_id" json:"sku_id"`
	RiskIndex    decimal.Decimal `db:"risk_index" json:"risk_index"`
	Threshold    decimal.Decimal `db:"threshold" json:"threshold"`
	Factors      json.RawMessage `db:"contributing_factors" json:"contributing_factors"`
	Acknowledged bool            `db:"acknowledged" json:"acknowledged"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}
