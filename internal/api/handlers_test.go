package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argus/internal/domain/catalog"
	"argus/internal/domain/pricing"
	"argus/internal/domain/risk"
	"argus/internal/domain/sentiment"
	"argus/pkg/errors"
	"argus/pkg/logger"
)

type stubCatalogRepo struct {
	skus       []catalog.SKU
	byID       map[int64]*catalog.SKU
	lastFilter catalog.ListFilter
	listErr    error
}

func (s *stubCatalogRepo) FindExact(ctx context.Context, product catalog.NormalizedProduct) (*catalog.SKU, error) {
	return nil, nil
}

func (s *stubCatalogRepo) FindSimilar(ctx context.Context, product catalog.NormalizedProduct, limit int) ([]catalog.SimilarSKU, error) {
	return nil, nil
}

func (s *stubCatalogRepo) Create(ctx context.Context, sku *catalog.SKU) error { return nil }

func (s *stubCatalogRepo) GetByID(ctx context.Context, id int64) (*catalog.SKU, error) {
	sku, ok := s.byID[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return sku, nil
}

func (s *stubCatalogRepo) List(ctx context.Context, filter catalog.ListFilter) ([]catalog.SKU, error) {
	s.lastFilter = filter
	return s.skus, s.listErr
}

func (s *stubCatalogRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(s.skus)), nil
}

type stubPricingRepo struct {
	history   []pricing.Observation
	latest    []pricing.LatestPrice
	lastDays  int
	lastSince time.Time
}

func (s *stubPricingRepo) Insert(ctx context.Context, observations []pricing.Observation) error {
	return nil
}

func (s *stubPricingRepo) PricesBetween(ctx context.Context, skuID int64, from, to time.Time) ([]float64, error) {
	return nil, nil
}

func (s *stubPricingRepo) History(ctx context.Context, skuID int64, days int) ([]pricing.Observation, error) {
	s.lastDays = days
	return s.history, nil
}

func (s *stubPricingRepo) EarliestRecordedAt(ctx context.Context, skuID int64) (time.Time, error) {
	return time.Time{}, nil
}

func (s *stubPricingRepo) LatestPrices(ctx context.Context, since time.Time) ([]pricing.LatestPrice, error) {
	s.lastSince = since
	return s.latest, nil
}

func (s *stubPricingRepo) CountSince(ctx context.Context, since time.Time) (uint64, error) {
	return 0, nil
}

type stubSentimentRepo struct {
	keywords  []sentiment.KeywordCount
	lastSince time.Time
	lastLimit int
}

func (s *stubSentimentRepo) Insert(ctx context.Context, mentions []sentiment.Mention) error {
	return nil
}

func (s *stubSentimentRepo) ReleaseSignalCounts(ctx context.Context, since time.Time) ([]sentiment.KeywordCount, error) {
	return nil, nil
}

func (s *stubSentimentRepo) TrendingKeywords(ctx context.Context, since time.Time, limit int) ([]sentiment.KeywordCount, error) {
	s.lastSince = since
	s.lastLimit = limit
	return s.keywords, nil
}

func (s *stubSentimentRepo) CountSince(ctx context.Context, since time.Time) (uint64, error) {
	return 0, nil
}

type stubAlertRepo struct {
	alerts    []risk.Alert
	byID      map[int64]*risk.Alert
	lastLimit int
	unacked   int64
}

func (s *stubAlertRepo) Insert(ctx context.Context, alert *risk.Alert) error { return nil }

func (s *stubAlertRepo) ExistsSince(ctx context.Context, skuID int64, since time.Time) (bool, error) {
	return false, nil
}

func (s *stubAlertRepo) ListRecent(ctx context.Context, limit int) ([]risk.Alert, error) {
	s.lastLimit = limit
	return s.alerts, nil
}

func (s *stubAlertRepo) GetByID(ctx context.Context, id int64) (*risk.Alert, error) {
	alert, ok := s.byID[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return alert, nil
}

func (s *stubAlertRepo) Acknowledge(ctx context.Context, id int64) error {
	alert, ok := s.byID[id]
	if !ok {
		return errors.ErrNotFound
	}
	alert.Acknowledged = true
	return nil
}

func (s *stubAlertRepo) CountUnacknowledged(ctx context.Context) (int64, error) {
	return s.unacked, nil
}

type apiFixture struct {
	catalog   *stubCatalogRepo
	pricing   *stubPricingRepo
	sentiment *stubSentimentRepo
	alerts    *stubAlertRepo
	mux       *http.ServeMux
}

func newFixture() *apiFixture {
	f := &apiFixture{
		catalog:   &stubCatalogRepo{byID: map[int64]*catalog.SKU{}},
		pricing:   &stubPricingRepo{},
		sentiment: &stubSentimentRepo{},
		alerts:    &stubAlertRepo{byID: map[int64]*risk.Alert{}},
	}

	handlers := NewHandlers(f.catalog, f.pricing, f.sentiment, f.alerts, logger.Get())
	f.mux = http.NewServeMux()
	handlers.Register(f.mux)

	return f
}

func performRequest(t *testing.T, mux *http.ServeMux, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestListSKUs(t *testing.T) {
	f := newFixture()
	f.catalog.skus = []catalog.SKU{
		{ID: 1, Brand: "MSI", Chipset: catalog.ChipsetRTX4070, ModelName: "GAMING X TRIO", VRAM: "12GB"},
		{ID: 2, Brand: "GIGABYTE", Chipset: catalog.ChipsetRTX4070TiSuper, ModelName: "WINDFORCE", VRAM: "16GB"},
	}

	rec := performRequest(t, f.mux, http.MethodGet, "/api/skus?brand=MSI&limit=10&offset=5")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, catalog.ListFilter{Brand: "MSI", Limit: 10, Offset: 5}, f.catalog.lastFilter)

	var resp skuListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.SKUs, 2)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "MSI", resp.SKUs[0].Brand)
}

func TestListSKUs_LimitDefaultsAndClamping(t *testing.T) {
	f := newFixture()

	performRequest(t, f.mux, http.MethodGet, "/api/skus")
	assert.Equal(t, defaultListLimit, f.catalog.lastFilter.Limit)
	assert.Equal(t, 0, f.catalog.lastFilter.Offset)

	performRequest(t, f.mux, http.MethodGet, "/api/skus?limit=99999")
	assert.Equal(t, maxListLimit, f.catalog.lastFilter.Limit)

	performRequest(t, f.mux, http.MethodGet, "/api/skus?limit=abc")
	assert.Equal(t, defaultListLimit, f.catalog.lastFilter.Limit)
}

func TestListSKUs_StoreFailure(t *testing.T) {
	f := newFixture()
	f.catalog.listErr = errors.New("connection refused")

	rec := performRequest(t, f.mux, http.MethodGet, "/api/skus")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal error")
}

func TestGetSKU(t *testing.T) {
	f := newFixture()
	f.catalog.byID[42] = &catalog.SKU{
		ID:      42,
		Brand:   "PALIT",
		Chipset: catalog.ChipsetRTX4070Super,
		VRAM:    "12GB",
	}

	rec := performRequest(t, f.mux, http.MethodGet, "/api/skus/42")
	require.Equal(t, http.StatusOK, rec.Code)

	var sku catalog.SKU
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sku))
	assert.Equal(t, int64(42), sku.ID)
	assert.Equal(t, "PALIT", sku.Brand)
}

func TestGetSKU_NotFound(t *testing.T) {
	f := newFixture()

	rec := performRequest(t, f.mux, http.MethodGet, "/api/skus/99")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not found")
}

func TestGetSKU_InvalidID(t *testing.T) {
	f := newFixture()

	rec := performRequest(t, f.mux, http.MethodGet, "/api/skus/abc")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid id")
}

func TestPriceHistory(t *testing.T) {
	f := newFixture()
	f.catalog.byID[42] = &catalog.SKU{ID: 42, Brand: "MSI", Chipset: catalog.ChipsetRTX4070}
	now := time.Now().UTC().Truncate(time.Second)
	f.pricing.history = []pricing.Observation{
		{SKUID: 42, Price: 915000, Source: "danawa", RecordedAt: now},
		{SKUID: 42, Price: 920000, Source: "danawa", RecordedAt: now.Add(-24 * time.Hour)},
	}

	rec := performRequest(t, f.mux, http.MethodGet, "/api/skus/42/prices?days=30")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 30, f.pricing.lastDays)

	var resp priceHistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(42), resp.SKUID)
	assert.Equal(t, 30, resp.Days)
	require.Len(t, resp.Prices, 2)
	assert.Equal(t, 915000.0, resp.Prices[0].Price)
}

func TestPriceHistory_DefaultWindow(t *testing.T) {
	f := newFixture()
	f.catalog.byID[42] = &catalog.SKU{ID: 42}

	rec := performRequest(t, f.mux, http.MethodGet, "/api/skus/42/prices")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultHistoryDays, f.pricing.lastDays)
	assert.Contains(t, rec.Body.String(), `"prices":[]`)
}

func TestPriceHistory_UnknownSKU(t *testing.T) {
	f := newFixture()

	rec := performRequest(t, f.mux, http.MethodGet, "/api/skus/7/prices")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLatestPrices(t *testing.T) {
	f := newFixture()
	f.pricing.latest = []pricing.LatestPrice{
		{SKUID: 1, Price: 912000, RecordedAt: time.Now().UTC()},
		{SKUID: 2, Price: 1180000, RecordedAt: time.Now().UTC()},
	}

	rec := performRequest(t, f.mux, http.MethodGet, "/api/prices/latest")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.WithinDuration(t, time.Now().Add(-latestPriceWindow), f.pricing.lastSince, time.Minute)

	var resp latestPricesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Prices, 2)
	assert.Equal(t, int64(1), resp.Prices[0].SKUID)
}

func TestListAlerts(t *testing.T) {
	f := newFixture()
	f.alerts.alerts = []risk.Alert{
		{ID: 2, SKUID: 42, RiskIndex: decimal.NewFromFloat(132.4), Threshold: decimal.NewFromInt(100)},
		{ID: 1, SKUID: 7, RiskIndex: decimal.NewFromFloat(104.1), Threshold: decimal.NewFromInt(100)},
	}

	rec := performRequest(t, f.mux, http.MethodGet, "/api/alerts?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, f.alerts.lastLimit)

	var resp alertListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Alerts, 2)
	assert.Equal(t, int64(2), resp.Alerts[0].ID)
	assert.True(t, resp.Alerts[0].RiskIndex.Equal(decimal.NewFromFloat(132.4)))
}

func TestListAlerts_DefaultLimit(t *testing.T) {
	f := newFixture()

	performRequest(t, f.mux, http.MethodGet, "/api/alerts")
	assert.Equal(t, defaultListLimit, f.alerts.lastLimit)
}

func TestAcknowledgeAlert(t *testing.T) {
	f := newFixture()
	f.alerts.byID[7] = &risk.Alert{
		ID:        7,
		SKUID:     42,
		RiskIndex: decimal.NewFromFloat(132.4),
		Threshold: decimal.NewFromInt(100),
	}

	rec := performRequest(t, f.mux, http.MethodPut, "/api/alerts/7/acknowledge")
	require.Equal(t, http.StatusOK, rec.Code)

	var alert risk.Alert
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &alert))
	assert.Equal(t, int64(7), alert.ID)
	assert.True(t, alert.Acknowledged)
	assert.True(t, f.alerts.byID[7].Acknowledged)
}

func TestAcknowledgeAlert_NotFound(t *testing.T) {
	f := newFixture()

	rec := performRequest(t, f.mux, http.MethodPut, "/api/alerts/99/acknowledge")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnacknowledgedCount(t *testing.T) {
	f := newFixture()
	f.alerts.unacked = 3

	rec := performRequest(t, f.mux, http.MethodGet, "/api/alerts/unacknowledged/count")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(3), resp["count"])
}

func TestTrendingKeywords(t *testing.T) {
	f := newFixture()
	f.sentiment.keywords = []sentiment.KeywordCount{
		{Keyword: "New Release", Mentions: 12},
		{Keyword: "Price Drop", Mentions: 7},
	}

	rec := performRequest(t, f.mux, http.MethodGet, "/api/signals/trending?days=14")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.WithinDuration(t, time.Now().AddDate(0, 0, -14), f.sentiment.lastSince, time.Minute)
	assert.Equal(t, 20, f.sentiment.lastLimit)

	var resp trendingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 14, resp.Days)
	require.Len(t, resp.Keywords, 2)
	assert.Equal(t, "New Release", resp.Keywords[0].Keyword)
}

func TestTrendingKeywords_DefaultDays(t *testing.T) {
	f := newFixture()

	rec := performRequest(t, f.mux, http.MethodGet, "/api/signals/trending")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, -defaultTrendingDays), f.sentiment.lastSince, time.Minute)
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture()

	rec := performRequest(t, f.mux, http.MethodPost, "/api/skus")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
