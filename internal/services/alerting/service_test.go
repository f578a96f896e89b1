package alerting

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argus/internal/domain/catalog"
	"argus/internal/domain/risk"
	"argus/internal/events"
	"argus/pkg/errors"
	"argus/pkg/logger"
)

// stubAlerts records inserts and serves a canned dedup answer
type stubAlerts struct {
	exists    bool
	existsErr error
	insertErr error
	inserted  []*risk.Alert
	since     time.Time
}

func (r *stubAlerts) Insert(_ context.Context, alert *risk.Alert) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	alert.ID = int64(len(r.inserted) + 1)
	alert.CreatedAt = time.Now()
	r.inserted = append(r.inserted, alert)
	return nil
}

func (r *stubAlerts) ExistsSince(_ context.Context, _ int64, since time.Time) (bool, error) {
	r.since = since
	return r.exists, r.existsErr
}

func (r *stubAlerts) ListRecent(context.Context, int) ([]risk.Alert, error) { return nil, nil }
func (r *stubAlerts) GetByID(context.Context, int64) (*risk.Alert, error)  { return nil, nil }
func (r *stubAlerts) Acknowledge(context.Context, int64) error             { return nil }
func (r *stubAlerts) CountUnacknowledged(context.Context) (int64, error)   { return 0, nil }

func testSKU() *catalog.SKU {
	return &catalog.SKU{
		ID:        7,
		Brand:     "ASUS",
		Chipset:   catalog.ChipsetRTX4070,
		ModelName: "TUF GAMING",
		VRAM:      "12GB",
	}
}

func testFactors() risk.Factors {
	return risk.Factors{
		CurrentPrice:    decimal.NewFromInt(789000),
		BaselinePrice:   decimal.NewFromInt(850000),
		PriceDelta:      decimal.NewFromInt(-61000),
		PriceChangePct:  decimal.NewFromFloat(-7.18),
		ReleaseMentions: 15,
		SentimentImpact: decimal.NewFromFloat(4.5),
		Threshold:       decimal.NewFromInt(-50000),
	}
}

func TestReason(t *testing.T) {
	tests := []struct {
		name     string
		pct      float64
		mentions int64
		want     string
	}{
		{"price drop and rumor surge", -7.2, 15, "가격 하락 + 신제품 루머 증가"},
		{"price drop only", -6.0, 3, "가격 급락"},
		{"rumor surge only", -1.0, 25, "신제품 루머 급증"},
		{"neither dominant", -2.0, 5, "재고 위험 감지"},
		{"pct boundary is not a drop", -5.0, 5, "재고 위험 감지"},
		{"mention boundary is not a surge", -1.0, 10, "재고 위험 감지"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factors := risk.Factors{
				PriceChangePct:  decimal.NewFromFloat(tt.pct),
				ReleaseMentions: tt.mentions,
			}
			assert.Equal(t, tt.want, Reason(factors))
		})
	}
}

func TestRecommendation(t *testing.T) {
	threshold := decimal.NewFromInt(-50000)

	// Beyond 1.5x the threshold
	assert.Equal(t, "즉시 재고 처분 검토 필요",
		Recommendation(decimal.NewFromInt(-80000), threshold))

	// High risk but not severe
	assert.Equal(t, "재고 모니터링 강화",
		Recommendation(decimal.NewFromInt(-60000), threshold))

	// Exactly 1.5x is not severe
	assert.Equal(t, "재고 모니터링 강화",
		Recommendation(decimal.NewFromInt(-75000), threshold))
}

func TestFormatMessage(t *testing.T) {
	factors := testFactors()
	factors.Reason = Reason(factors)

	got := FormatMessage("ASUS RTX 4070 TUF GAMING", decimal.NewFromFloat(-60995.5), factors)

	want := "제품: ASUS RTX 4070 TUF GAMING | " +
		"위험 지수: -60995.50 (임계값: -50000.00) | " +
		"가격 변동: -7.18% | " +
		"신제품 언급: 15회 | " +
		"원인: 가격 하락 + 신제품 루머 증가 | " +
		"권고: 재고 모니터링 강화" +
		"\n현재가: 789,000원 / 기준가: 850,000원"

	assert.Equal(t, want, got)
}

func TestFormatMessage_NoPriceLineWithoutCurrentPrice(t *testing.T) {
	factors := risk.Factors{
		PriceChangePct:  decimal.NewFromFloat(-2.0),
		ReleaseMentions: 3,
		Threshold:       decimal.NewFromInt(-50000),
		Reason:          "재고 위험 감지",
	}

	got := FormatMessage("MSI RTX 4070 VENTUS", decimal.NewFromInt(-55000), factors)
	assert.NotContains(t, got, "현재가")
	assert.Contains(t, got, "권고: 재고 모니터링 강화")
}

func TestProductName(t *testing.T) {
	assert.Equal(t, "ASUS RTX 4070 TUF GAMING", ProductName(testSKU()))
}

func TestDispatch(t *testing.T) {
	alerts := &stubAlerts{}
	svc := NewService(alerts, events.NewPublisher(nil, logger.Get()), logger.Get())

	sent, err := svc.Dispatch(context.Background(), testSKU(), decimal.NewFromFloat(-60995.5), testFactors())
	require.NoError(t, err)
	assert.True(t, sent)

	require.Len(t, alerts.inserted, 1)
	stored := alerts.inserted[0]
	assert.Equal(t, int64(7), stored.SKUID)
	assert.True(t, stored.RiskIndex.Equal(decimal.NewFromFloat(-60995.5)))
	assert.True(t, stored.Threshold.Equal(decimal.NewFromInt(-50000)))

	// Persisted factors carry the derived reason
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(stored.Factors, &decoded))
	assert.Equal(t, "가격 하락 + 신제품 루머 증가", decoded["reason"])

	// Dedup window asked for the last 24h
	assert.WithinDuration(t, time.Now().Add(-24*time.Hour), alerts.since, 5*time.Second)
}

func TestDispatch_SuppressesDuplicates(t *testing.T) {
	alerts := &stubAlerts{exists: true}
	svc := NewService(alerts, events.NewPublisher(nil, logger.Get()), logger.Get())

	sent, err := svc.Dispatch(context.Background(), testSKU(), decimal.NewFromInt(-60000), testFactors())
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Empty(t, alerts.inserted)
}

func TestDispatch_InsertFailure(t *testing.T) {
	alerts := &stubAlerts{insertErr: errors.New("postgres down")}
	svc := NewService(alerts, events.NewPublisher(nil, logger.Get()), logger.Get())

	_, err := svc.Dispatch(context.Background(), testSKU(), decimal.NewFromInt(-60000), testFactors())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert alert")
}

func TestDispatch_DedupCheckFailure(t *testing.T) {
	alerts := &stubAlerts{existsErr: errors.New("postgres down")}
	svc := NewService(alerts, events.NewPublisher(nil, logger.Get()), logger.Get())

	_, err := svc.Dispatch(context.Background(), testSKU(), decimal.NewFromInt(-60000), testFactors())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dedup")
}
