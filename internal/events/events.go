package events

import "time"

// AlertRaised is published to risk.alerts when a high-risk SKU produces a
// persisted alert. Message carries the fully formatted notification text so
// consumers can relay it without re-deriving the wording.
type AlertRaised struct {
	AlertID     int64     `json:"alert_id"`
	SKUID       int64     `json:"sku_id"`
	ProductName string    `json:"product_name"`
	RiskIndex   string    `json:"risk_index"`
	Threshold   string    `json:"threshold"`
	Reason      string    `json:"reason"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
}

// SKUCreated is published to catalog.skus.created when the loader registers
// a SKU the catalog had never seen
type SKUCreated struct {
	SKUID     int64     `json:"sku_id"`
	Brand     string    `json:"brand"`
	Chipset   string    `json:"chipset"`
	ModelName string    `json:"model_name"`
	VRAM      string    `json:"vram"`
	IsOC      bool      `json:"is_oc"`
	Timestamp time.Time `json:"timestamp"`
}

// PipelineRunCompleted is published to pipeline.runs.completed after each
// pipeline run, successful or not
type PipelineRunCompleted struct {
	RunID            string    `json:"run_id"`
	Task             string    `json:"task"`
	ListingsStored   int       `json:"listings_stored"`
	SKUsCreated      int       `json:"skus_created"`
	MentionsStored   int       `json:"mentions_stored"`
	AlertsDispatched int       `json:"alerts_dispatched"`
	ItemErrors       int       `json:"item_errors"`
	DurationSeconds  float64   `json:"duration_seconds"`
	Err              string    `json:"error,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}
