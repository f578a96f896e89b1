package metrics

import (
	"context"
	"time"

	"argus/pkg/logger"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// CustomCollector collects inventory totals straight from the stores on
// every scrape. Queries are cheap aggregates; a failing store logs and
// drops its metrics rather than failing the scrape.
type CustomCollector struct {
	log        *logger.Logger
	postgres   *sqlx.DB
	clickhouse driver.Conn
	redis      *redis.Client

	// Descriptors
	totalSKUs          *prometheus.Desc
	unackedAlerts      *prometheus.Desc
	alertsLast24h      *prometheus.Desc
	observationsPerDay *prometheus.Desc
	mentionsPerDay     *prometheus.Desc
	redisKeys          *prometheus.Desc
}

// NewCustomCollector creates a new custom metrics collector
func NewCustomCollector(log *logger.Logger, postgres *sqlx.DB, clickhouse driver.Conn, redis *redis.Client) *CustomCollector {
	return &CustomCollector{
		log:        log,
		postgres:   postgres,
		clickhouse: clickhouse,
		redis:      redis,

		totalSKUs: prometheus.NewDesc(
			"argus_catalog_skus",
			"Total number of catalog SKUs",
			nil, nil,
		),
		unackedAlerts: prometheus.NewDesc(
			"argus_alerts_unacknowledged",
			"Number of unacknowledged risk alerts",
			nil, nil,
		),
		alertsLast24h: prometheus.NewDesc(
			"argus_alerts_raised_24h",
			"Risk alerts created in the last 24h",
			nil, nil,
		),
		observationsPerDay: prometheus.NewDesc(
			"argus_price_observations_24h",
			"Price observations recorded in the last 24h",
			nil, nil,
		),
		mentionsPerDay: prometheus.NewDesc(
			"argus_reddit_mentions_24h",
			"Reddit mentions collected in the last 24h",
			nil, nil,
		),
		redisKeys: prometheus.NewDesc(
			"argus_redis_keys",
			"Total keys in the Redis database",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *CustomCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalSKUs
	ch <- c.unackedAlerts
	ch <- c.alertsLast24h
	ch <- c.observationsPerDay
	ch <- c.mentionsPerDay
	ch <- c.redisKeys
}

// Collect implements prometheus.Collector
func (c *CustomCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c.collectCatalogStats(ctx, ch)
	c.collectAlertStats(ctx, ch)
	c.collectObservationStats(ctx, ch)
	c.collectMentionStats(ctx, ch)
	c.collectRedisStats(ctx, ch)
}

func (c *CustomCollector) collectCatalogStats(ctx context.Context, ch chan<- prometheus.Metric) {
	var count int
	err := c.postgres.GetContext(ctx, &count, "SELECT COUNT(*) FROM skus")
	if err != nil {
		c.log.Error("Failed to collect SKU count metric", "error", err)
		return
	}

	ch <- prometheus.MustNewConstMetric(
		c.totalSKUs,
		prometheus.GaugeValue,
		float64(count),
	)
}

func (c *CustomCollector) collectAlertStats(ctx context.Context, ch chan<- prometheus.Metric) {
	var unacked int
	err := c.postgres.GetContext(ctx, &unacked, "SELECT COUNT(*) FROM risk_alerts WHERE acknowledged = false")
	if err != nil {
		c.log.Error("Failed to collect alert stats", "error", err)
		return
	}

	ch <- prometheus.MustNewConstMetric(
		c.unackedAlerts,
		prometheus.GaugeValue,
		float64(unacked),
	)

	var recent int
	err = c.postgres.GetContext(ctx, &recent, `
		SELECT COUNT(*)
		FROM risk_alerts
		WHERE created_at > NOW() - INTERVAL '24 hours'
	`)
	if err != nil {
		c.log.Error("Failed to collect recent alert stats", "error", err)
		return
	}

	ch <- prometheus.MustNewConstMetric(
		c.alertsLast24h,
		prometheus.GaugeValue,
		float64(recent),
	)
}

func (c *CustomCollector) collectObservationStats(ctx context.Context, ch chan<- prometheus.Metric) {
	var count uint64
	err := c.clickhouse.QueryRow(ctx, `
		SELECT count()
		FROM price_observations
		WHERE recorded_at >= now() - INTERVAL 24 HOUR
	`).Scan(&count)
	if err != nil {
		c.log.Error("Failed to collect observation stats", "error", err)
		return
	}

	ch <- prometheus.MustNewConstMetric(
		c.observationsPerDay,
		prometheus.GaugeValue,
		float64(count),
	)
}

func (c *CustomCollector) collectMentionStats(ctx context.Context, ch chan<- prometheus.Metric) {
	var count uint64
	err := c.clickhouse.QueryRow(ctx, `
		SELECT count()
		FROM reddit_mentions
		WHERE collected_at >= now() - INTERVAL 24 HOUR
	`).Scan(&count)
	if err != nil {
		c.log.Error("Failed to collect mention stats", "error", err)
		return
	}

	ch <- prometheus.MustNewConstMetric(
		c.mentionsPerDay,
		prometheus.GaugeValue,
		float64(count),
	)
}

func (c *CustomCollector) collectRedisStats(ctx context.Context, ch chan<- prometheus.Metric) {
	size, err := c.redis.DBSize(ctx).Result()
	if err != nil {
		c.log.Error("Failed to collect redis stats", "error", err)
		return
	}

	ch <- prometheus.MustNewConstMetric(
		c.redisKeys,
		prometheus.GaugeValue,
		float64(size),
	)
}

// RegisterCustomCollector registers the custom collector
func RegisterCustomCollector(collector *CustomCollector) {
	prometheus.MustRegister(collector)
}
