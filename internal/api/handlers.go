package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"argus/internal/domain/catalog"
	"argus/internal/domain/pricing"
	"argus/internal/domain/risk"
	"argus/internal/domain/sentiment"
	"argus/pkg/errors"
	"argus/pkg/logger"
)

const (
	defaultListLimit    = 50
	maxListLimit        = 200
	defaultHistoryDays  = 90
	maxHistoryDays      = 365
	defaultTrendingDays = 7
	latestPriceWindow   = 24 * time.Hour
)

// Handlers serves the read-mostly REST surface over the domain
// repositories. All writes the dashboard needs go through here too
// (alert acknowledgement); everything else is produced by the pipeline.
type Handlers struct {
	catalog   catalog.Repository
	pricing   pricing.Repository
	sentiment sentiment.Repository
	alerts    risk.AlertRepository
	log       *logger.Logger
}

// NewHandlers creates the REST handler set
func NewHandlers(
	catalogRepo catalog.Repository,
	pricingRepo pricing.Repository,
	sentimentRepo sentiment.Repository,
	alertRepo risk.AlertRepository,
	log *logger.Logger,
) *Handlers {
	return &Handlers{
		catalog:   catalogRepo,
		pricing:   pricingRepo,
		sentiment: sentimentRepo,
		alerts:    alertRepo,
		log:       log.With("component", "api"),
	}
}

// Register wires the REST routes onto the mux
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/skus", h.handleListSKUs)
	mux.HandleFunc("GET /api/skus/{id}", h.handleGetSKU)
	mux.HandleFunc("GET /api/skus/{id}/prices", h.handlePriceHistory)
	mux.HandleFunc("GET /api/prices/latest", h.handleLatestPrices)
	mux.HandleFunc("GET /api/alerts", h.handleListAlerts)
	mux.HandleFunc("PUT /api/alerts/{id}/acknowledge", h.handleAcknowledgeAlert)
	mux.HandleFunc("GET /api/alerts/unacknowledged/count", h.handleUnacknowledgedCount)
	mux.HandleFunc("GET /api/signals/trending", h.handleTrendingKeywords)
}

type skuListResponse struct {
	SKUs   []catalog.SKU `json:"skus"`
	Count  int           `json:"count"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

func (h *Handlers) handleListSKUs(w http.ResponseWriter, r *http.Request) {
	filter := catalog.ListFilter{
		Brand:   r.URL.Query().Get("brand"),
		Chipset: r.URL.Query().Get("chipset"),
		Limit:   queryInt(r, "limit", defaultListLimit, maxListLimit),
		Offset:  queryInt(r, "offset", 0, 1<<20),
	}

	skus, err := h.catalog.List(r.Context(), filter)
	if err != nil {
		h.storeError(w, err, "list skus")
		return
	}
	if skus == nil {
		skus = []catalog.SKU{}
	}

	writeJSON(w, http.StatusOK, skuListResponse{
		SKUs:   skus,
		Count:  len(skus),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

func (h *Handlers) handleGetSKU(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	sku, err := h.catalog.GetByID(r.Context(), id)
	if err != nil {
		h.storeError(w, err, "get sku")
		return
	}

	writeJSON(w, http.StatusOK, sku)
}

type priceHistoryResponse struct {
	SKUID  int64                 `json:"sku_id"`
	Days   int                   `json:"days"`
	Prices []pricing.Observation `json:"prices"`
}

func (h *Handlers) handlePriceHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	days := queryInt(r, "days", defaultHistoryDays, maxHistoryDays)

	// 404 for unknown SKUs rather than an empty history
	if _, err := h.catalog.GetByID(r.Context(), id); err != nil {
		h.storeError(w, err, "get sku")
		return
	}

	observations, err := h.pricing.History(r.Context(), id, days)
	if err != nil {
		h.storeError(w, err, "price history")
		return
	}
	if observations == nil {
		observations = []pricing.Observation{}
	}

	writeJSON(w, http.StatusOK, priceHistoryResponse{
		SKUID:  id,
		Days:   days,
		Prices: observations,
	})
}

type latestPricesResponse struct {
	Prices []pricing.LatestPrice `json:"prices"`
	Count  int                   `json:"count"`
	Since  time.Time             `json:"since"`
}

func (h *Handlers) handleLatestPrices(w http.ResponseWriter, r *http.Request) {
	since := time.Now().Add(-latestPriceWindow)

	prices, err := h.pricing.LatestPrices(r.Context(), since)
	if err != nil {
		h.storeError(w, err, "latest prices")
		return
	}
	if prices == nil {
		prices = []pricing.LatestPrice{}
	}

	writeJSON(w, http.StatusOK, latestPricesResponse{
		Prices: prices,
		Count:  len(prices),
		Since:  since,
	})
}

type alertListResponse struct {
	Alerts []risk.Alert `json:"alerts"`
	Count  int          `json:"count"`
}

func (h *Handlers) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultListLimit, maxListLimit)

	alerts, err := h.alerts.ListRecent(r.Context(), limit)
	if err != nil {
		h.storeError(w, err, "list alerts")
		return
	}
	if alerts == nil {
		alerts = []risk.Alert{}
	}

	writeJSON(w, http.StatusOK, alertListResponse{
		Alerts: alerts,
		Count:  len(alerts),
	})
}

func (h *Handlers) handleAcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.alerts.Acknowledge(r.Context(), id); err != nil {
		h.storeError(w, err, "acknowledge alert")
		return
	}

	alert, err := h.alerts.GetByID(r.Context(), id)
	if err != nil {
		h.storeError(w, err, "get alert")
		return
	}

	h.log.Infow("Alert acknowledged", "alert_id", id)
	writeJSON(w, http.StatusOK, alert)
}

func (h *Handlers) handleUnacknowledgedCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.alerts.CountUnacknowledged(r.Context())
	if err != nil {
		h.storeError(w, err, "unacknowledged count")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}

type trendingResponse struct {
	Keywords []sentiment.KeywordCount `json:"keywords"`
	Days     int                      `json:"days"`
}

func (h *Handlers) handleTrendingKeywords(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", defaultTrendingDays, maxHistoryDays)
	limit := queryInt(r, "limit", 20, 100)
	since := time.Now().AddDate(0, 0, -days)

	keywords, err := h.sentiment.TrendingKeywords(r.Context(), since, limit)
	if err != nil {
		h.storeError(w, err, "trending keywords")
		return
	}
	if keywords == nil {
		keywords = []sentiment.KeywordCount{}
	}

	writeJSON(w, http.StatusOK, trendingResponse{
		Keywords: keywords,
		Days:     days,
	})
}

// pathID parses the {id} segment; on failure it answers 400 and
// reports false
func (h *Handlers) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// storeError maps repository failures onto HTTP status codes
func (h *Handlers) storeError(w http.ResponseWriter, err error, op string) {
	if errors.Is(err, errors.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	h.log.Errorw("Request failed", "op", op, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// queryInt parses a positive integer query parameter, falling back to
// def when absent or invalid and clamping to max
func queryInt(r *http.Request, name string, def, max int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
