package alerting

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"argus/internal/domain/catalog"
	"argus/internal/domain/risk"
	"argus/internal/events"
	"argus/internal/metrics"
	"argus/pkg/errors"
	"argus/pkg/logger"
)

// dedupWindow suppresses repeat alerts for a SKU. One alert per SKU per
// day is enough for a human to act on.
const dedupWindow = 24 * time.Hour

var severityFactor = decimal.NewFromFloat(1.5)

// Service turns high-risk assessments into persisted alerts and Kafka
// events. Telegram delivery happens downstream in the alert relay.
type Service struct {
	alerts    risk.AlertRepository
	publisher *events.Publisher
	log       *logger.Logger
}

// NewService creates a new alert dispatcher
func NewService(alerts risk.AlertRepository, publisher *events.Publisher, log *logger.Logger) *Service {
	return &Service{
		alerts:    alerts,
		publisher: publisher,
		log:       log,
	}
}

// Dispatch persists an alert for a high-risk SKU and publishes the alert
// event. Returns false without error when the SKU already alerted inside
// the dedup window.
func (s *Service) Dispatch(ctx context.Context, sku *catalog.SKU, index decimal.Decimal, factors risk.Factors) (bool, error) {
	exists, err := s.alerts.ExistsSince(ctx, sku.ID, time.Now().Add(-dedupWindow))
	if err != nil {
		return false, errors.Wrap(err, "check alert dedup window")
	}
	if exists {
		s.log.Debugw("Skipping duplicate alert",
			"sku_id", sku.ID,
			"window", dedupWindow.String(),
		)
		return false, nil
	}

	factors.Reason = Reason(factors)

	payload, err := json.Marshal(factors)
	if err != nil {
		return false, errors.Wrap(err, "marshal contributing factors")
	}

	alert := &risk.Alert{
		SKUID:     sku.ID,
		RiskIndex: index,
		Threshold: factors.Threshold,
		Factors:   payload,
	}
	if err := s.alerts.Insert(ctx, alert); err != nil {
		return false, errors.Wrap(err, "insert alert")
	}

	productName := ProductName(sku)
	message := FormatMessage(productName, index, factors)

	metrics.RecordAlertRaised(factors.Reason)
	s.log.Warnw("RISK ALERT",
		"sku_id", sku.ID,
		"product", productName,
		"risk_index", index,
		"threshold", factors.Threshold,
		"reason", factors.Reason,
	)

	s.publisher.PublishAlertRaised(ctx, events.AlertRaised{
		AlertID:     alert.ID,
		SKUID:       sku.ID,
		ProductName: productName,
		RiskIndex:   index.StringFixed(2),
		Threshold:   factors.Threshold.StringFixed(2),
		Reason:      factors.Reason,
		Message:     message,
		Timestamp:   time.Now().UTC(),
	})

	return true, nil
}

// ProductName renders the human-readable name used in alert messages
func ProductName(sku *catalog.SKU) string {
	return fmt.Sprintf("%s %s %s", sku.Brand, sku.Chipset, sku.ModelName)
}

// Reason names the dominant cause of the risk signal
func Reason(factors risk.Factors) string {
	priceDropped := factors.PriceChangePct.LessThan(decimal.NewFromInt(-5))
	rumorsSurged := factors.ReleaseMentions > 10

	switch {
	case priceDropped && rumorsSurged:
		return "가격 하락 + 신제품 루머 증가"
	case priceDropped:
		return "가격 급락"
	case rumorsSurged:
		return "신제품 루머 급증"
	default:
		return "재고 위험 감지"
	}
}

// Recommendation picks the action line for the index severity. Indexes
// below 1.5x the threshold call for liquidation review, the rest for
// closer monitoring.
func Recommendation(index, threshold decimal.Decimal) string {
	if index.LessThan(threshold.Mul(severityFactor)) {
		return "즉시 재고 처분 검토 필요"
	}
	return "재고 모니터링 강화"
}

// FormatMessage renders the alert text sent to Telegram. KRW prices carry
// thousands separators.
func FormatMessage(productName string, index decimal.Decimal, factors risk.Factors) string {
	parts := []string{
		fmt.Sprintf("제품: %s", productName),
		fmt.Sprintf("위험 지수: %s (임계값: %s)", index.StringFixed(2), factors.Threshold.StringFixed(2)),
		fmt.Sprintf("가격 변동: %s%%", factors.PriceChangePct.StringFixed(2)),
		fmt.Sprintf("신제품 언급: %d회", factors.ReleaseMentions),
		fmt.Sprintf("원인: %s", factors.Reason),
		fmt.Sprintf("권고: %s", Recommendation(index, factors.Threshold)),
	}

	message := strings.Join(parts, " | ")

	if factors.CurrentPrice.IsPositive() {
		message += fmt.Sprintf("\n현재가: %s원 / 기준가: %s원",
			humanize.Comma(factors.CurrentPrice.IntPart()),
			humanize.Comma(factors.BaselinePrice.IntPart()),
		)
	}

	return message
}
