package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"argus/pkg/errors"
)

type Config struct {
	App           AppConfig
	HTTP          HTTPConfig
	Postgres      PostgresConfig
	ClickHouse    ClickHouseConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Telegram      TelegramConfig
	Crawler       CrawlerConfig
	Reddit        RedditConfig
	Risk          RiskConfig
	Sentiment     SentimentConfig
	ErrorTracking ErrorTrackingConfig
	Workers       WorkerConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"argus"`
	Version  string `envconfig:"APP_VERSION" default:"1.0.0"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type HTTPConfig struct {
	Port int `envconfig:"HTTP_PORT" default:"8080"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	Database string `envconfig:"POSTGRES_DB" required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type ClickHouseConfig struct {
	Host     string `envconfig:"CLICKHOUSE_HOST" required:"true"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD"`
	Database string `envconfig:"CLICKHOUSE_DB" default:"gpu_market"`
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" required:"true"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Enabled bool     `envconfig:"KAFKA_ENABLED" default:"true"`
	Brokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	GroupID string   `envconfig:"KAFKA_GROUP_ID" default:"argus"`
}

type TelegramConfig struct {
	Enabled  bool   `envconfig:"TELEGRAM_ENABLED" default:"false"`
	BotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	ChatID   int64  `envconfig:"TELEGRAM_CHAT_ID"`
}

// CrawlerConfig configures the Danawa listing crawler
type CrawlerConfig struct {
	BaseURL        string        `envconfig:"CRAWLER_BASE_URL" default:"https://search.danawa.com/dsearch.php"`
	Queries        []string      `envconfig:"CRAWLER_QUERIES" default:"RTX 4070"`
	Pages          int           `envconfig:"CRAWLER_PAGES" default:"3"`
	Timeout        time.Duration `envconfig:"CRAWLER_TIMEOUT" default:"30s"`
	MaxRetries     int           `envconfig:"CRAWLER_MAX_RETRIES" default:"3"`
	RetryBackoff   time.Duration `envconfig:"CRAWLER_RETRY_BACKOFF" default:"5s"`
	RequestsPerSec float64       `envconfig:"CRAWLER_REQUESTS_PER_SEC" default:"0.5"`
	UserAgent      string        `envconfig:"CRAWLER_USER_AGENT" default:"argus-gpu-monitor/1.0"`
}

// RedditConfig configures the subreddit mention collector
type RedditConfig struct {
	BaseURL      string        `envconfig:"REDDIT_BASE_URL" default:"https://www.reddit.com"`
	Subreddits   []string      `envconfig:"REDDIT_SUBREDDITS" default:"nvidia,pcmasterrace"`
	Keywords     []string      `envconfig:"REDDIT_KEYWORDS" default:"New Release,Leak,Issues,Price Drop,Used Market,5070 release date"`
	PostLimit    int           `envconfig:"REDDIT_POST_LIMIT" default:"100"`
	Timeout      time.Duration `envconfig:"REDDIT_TIMEOUT" default:"30s"`
	MaxRetries   int           `envconfig:"REDDIT_MAX_RETRIES" default:"3"`
	RetryBackoff time.Duration `envconfig:"REDDIT_RETRY_BACKOFF" default:"5s"`
	UserAgent    string        `envconfig:"REDDIT_USER_AGENT" default:"argus-gpu-monitor/1.0"`
	SeenTTL      time.Duration `envconfig:"REDDIT_SEEN_TTL" default:"168h"`
}

// RiskConfig configures the risk engine and scan
type RiskConfig struct {
	Threshold     float64 `envconfig:"RISK_THRESHOLD" default:"100.0"`
	SentimentDays int     `envconfig:"RISK_SENTIMENT_DAYS" default:"7"`
}

// SentimentConfig holds keyword weights for the sentiment scorer
type SentimentConfig struct {
	WeightNewRelease float64 `envconfig:"SENTIMENT_WEIGHT_NEW_RELEASE" default:"3.0"`
	WeightPriceDrop  float64 `envconfig:"SENTIMENT_WEIGHT_PRICE_DROP" default:"2.0"`
	WeightDefault    float64 `envconfig:"SENTIMENT_WEIGHT_DEFAULT" default:"1.0"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	Provider    string `envconfig:"ERROR_TRACKING_PROVIDER" default:"sentry"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// WorkerConfig contains intervals for all background workers. The crawl
// and collection jobs ran daily in the legacy scheduler; 24h intervals
// keep that cadence while staying tunable per environment.
type WorkerConfig struct {
	PriceCrawlInterval    time.Duration `envconfig:"WORKER_PRICE_CRAWL_INTERVAL" default:"24h"`
	PriceCrawlEnabled     bool          `envconfig:"WORKER_PRICE_CRAWL_ENABLED" default:"true"`
	RedditCollectInterval time.Duration `envconfig:"WORKER_REDDIT_COLLECT_INTERVAL" default:"24h"`
	RedditCollectEnabled  bool          `envconfig:"WORKER_REDDIT_COLLECT_ENABLED" default:"true"`
	RiskScanInterval      time.Duration `envconfig:"WORKER_RISK_SCAN_INTERVAL" default:"6h"`
	RiskScanEnabled       bool          `envconfig:"WORKER_RISK_SCAN_ENABLED" default:"true"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
