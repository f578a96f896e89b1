package bootstrap

import (
	"github.com/shopspring/decimal"

	chclient "argus/internal/adapters/clickhouse"
	"argus/internal/adapters/config"
	"argus/internal/adapters/danawa"
	errnoop "argus/internal/adapters/errors/noop"
	"argus/internal/adapters/errors/sentry"
	"argus/internal/adapters/kafka"
	pgclient "argus/internal/adapters/postgres"
	redisclient "argus/internal/adapters/redis"
	"argus/internal/adapters/reddit"
	"argus/internal/adapters/telegram"
	"argus/internal/api"
	"argus/internal/api/health"
	"argus/internal/consumers"
	domainsentiment "argus/internal/domain/sentiment"
	"argus/internal/events"
	"argus/internal/metrics"
	chrepo "argus/internal/repository/clickhouse"
	pgrepo "argus/internal/repository/postgres"
	redisrepo "argus/internal/repository/redis"
	"argus/internal/services/alerting"
	"argus/internal/services/loader"
	"argus/internal/services/matcher"
	"argus/internal/services/normalizer"
	"argus/internal/services/pipeline"
	pricingservice "argus/internal/services/pricing"
	riskservice "argus/internal/services/risk"
	sentimentservice "argus/internal/services/sentiment"
	"argus/internal/workers"
	"argus/internal/workers/analysis"
	"argus/internal/workers/ingest"
	"argus/pkg/errors"
	"argus/pkg/logger"
)

// ========================================
// Phase 1: Configuration & Logging
// ========================================

// MustInitConfig loads configuration and initializes the logger
func (c *Container) MustInitConfig() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	c.Config = cfg

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}

	c.Log = logger.Get()
	c.Log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	c.ErrorTracker = provideErrorTracker(cfg, c.Log)
	logger.SetErrorTracker(c.ErrorTracker)
}

// ========================================
// Phase 2: Infrastructure Layer
// ========================================

// MustInitInfrastructure initializes data stores (Postgres, ClickHouse, Redis)
func (c *Container) MustInitInfrastructure() {
	var err error

	c.Log.Info("Connecting to PostgreSQL...")
	c.PG, err = pgclient.NewClient(c.Config.Postgres)
	if err != nil {
		c.Log.Fatalf("failed to connect postgres: %v", err)
	}
	c.Log.Info("✓ PostgreSQL connected")

	c.Log.Info("Connecting to ClickHouse...")
	c.CH, err = chclient.NewClient(c.Config.ClickHouse)
	if err != nil {
		c.Log.Fatalf("failed to connect clickhouse: %v", err)
	}
	c.Log.Info("✓ ClickHouse connected")

	c.Log.Info("Connecting to Redis...")
	c.Redis, err = redisclient.NewClient(c.Config.Redis)
	if err != nil {
		c.Log.Fatalf("failed to connect redis: %v", err)
	}
	c.Log.Info("✓ Redis connected")
}

// ========================================
// Phase 3: Domain Layer - Repositories
// ========================================

// MustInitRepositories initializes all domain repositories
func (c *Container) MustInitRepositories() {
	c.Repos.Catalog = pgrepo.NewCatalogRepository(c.PG.DB())
	c.Repos.Alerts = pgrepo.NewAlertRepository(c.PG.DB())
	c.Repos.Pricing = chrepo.NewPricingRepository(c.CH.Conn())
	c.Repos.Mentions = chrepo.NewMentionRepository(c.CH.Conn())
	c.Repos.Seen = redisrepo.NewSeenStore(c.Redis.Client(), c.Config.Reddit.SeenTTL)

	c.Log.Info("✓ Repositories initialized")
}

// ========================================
// Phase 4: External Adapters
// ========================================

// MustInitAdapters initializes external adapters (Kafka, crawlers, Telegram)
func (c *Container) MustInitAdapters() {
	if c.Config.Kafka.Enabled {
		c.Adapters.KafkaProducer = provideKafkaProducer(c.Config, c.Log)
		c.Adapters.AlertConsumer = provideKafkaConsumer(c.Config, kafka.TopicRiskAlert, c.Log)
	} else {
		c.Log.Info("Kafka disabled, events will not be published")
	}

	// Publisher tolerates a nil producer so the pipeline code never has
	// to branch on Kafka being configured
	c.Adapters.Publisher = events.NewPublisher(c.Adapters.KafkaProducer, c.Log)

	c.Adapters.Danawa = danawa.NewClient(c.Config.Crawler, c.Log)
	c.Adapters.Reddit = reddit.NewClient(c.Config.Reddit, c.Log)

	if c.Config.Telegram.Enabled {
		notifier, err := telegram.NewNotifier(c.Config.Telegram, c.Log)
		if err != nil {
			c.Log.Fatalf("failed to initialize telegram notifier: %v", err)
		}
		c.Adapters.Notifier = notifier
		c.Log.Info("✓ Telegram notifier initialized")
	} else {
		c.Log.Info("Telegram notifications disabled")
	}
}

// ========================================
// Phase 5: Domain Services
// ========================================

// MustInitServices initializes domain services
func (c *Container) MustInitServices() {
	var err error

	c.Services.Normalizer, err = normalizer.NewService(normalizer.DefaultConfig())
	if err != nil {
		c.Log.Fatalf("failed to build normalizer: %v", err)
	}

	c.Services.Matcher = matcher.NewService(c.Repos.Catalog, c.Log)
	c.Services.Scorer = sentimentservice.NewService(provideSentimentConfig(c.Config.Sentiment))

	c.Services.Loader = loader.NewService(
		c.Repos.Catalog,
		c.Repos.Pricing,
		c.Repos.Mentions,
		c.Services.Scorer,
		c.Adapters.Publisher,
		c.Log,
	)

	c.Services.Trend = pricingservice.NewService(c.Repos.Pricing, c.Log)

	c.Services.Risk = riskservice.NewService(
		c.Services.Trend,
		c.Repos.Mentions,
		riskservice.Config{Threshold: decimal.NewFromFloat(c.Config.Risk.Threshold)},
		c.Log,
	)

	c.Services.Alerting = alerting.NewService(c.Repos.Alerts, c.Adapters.Publisher, c.Log)

	c.Services.Pipeline = pipeline.NewService(
		c.Adapters.Danawa,
		c.Adapters.Reddit,
		c.Services.Normalizer,
		c.Services.Matcher,
		c.Services.Loader,
		c.Services.Trend,
		c.Services.Risk,
		c.Services.Alerting,
		c.Repos.Catalog,
		c.Repos.Seen,
		c.Redis,
		c.Adapters.Publisher,
		c.ErrorTracker,
		pipeline.Config{SentimentDays: c.Config.Risk.SentimentDays},
		c.Log,
	)

	c.Log.Info("✓ Services initialized")
}

// ========================================
// Phase 6: Application Layer
// ========================================

// MustInitApplication initializes the HTTP layer and metrics
func (c *Container) MustInitApplication() {
	c.Application.HealthHandler = health.New(
		c.Log,
		c.PG.DB(),
		c.CH.Conn(),
		c.Redis.Client(),
		c.Config.App.Name,
		c.Config.App.Version,
	)

	c.Application.Handlers = api.NewHandlers(
		c.Repos.Catalog,
		c.Repos.Pricing,
		c.Repos.Mentions,
		c.Repos.Alerts,
		c.Log,
	)

	c.Application.HTTPServer = api.NewServer(
		api.ServerConfig{
			Port:        c.Config.HTTP.Port,
			ServiceName: c.Config.App.Name,
			Version:     c.Config.App.Version,
		},
		c.Application.HealthHandler,
		c.Application.Handlers,
		c.Log,
	)

	metrics.Init()
	customCollector := metrics.NewCustomCollector(c.Log, c.PG.DB(), c.CH.Conn(), c.Redis.Client())
	metrics.RegisterCustomCollector(customCollector)
	c.Log.Info("✓ Metrics initialized")

	c.Log.Info("✓ Application layer initialized")
}

// ========================================
// Phase 7: Background Processing
// ========================================

// MustInitBackground initializes background workers and consumers
func (c *Container) MustInitBackground() {
	scheduler := workers.NewScheduler()
	scheduler.RegisterWorker(ingest.NewPriceCrawlWorker(
		c.Services.Pipeline,
		c.Config.Workers.PriceCrawlInterval,
		c.Config.Workers.PriceCrawlEnabled,
	))
	scheduler.RegisterWorker(ingest.NewRedditCollectWorker(
		c.Services.Pipeline,
		c.Config.Workers.RedditCollectInterval,
		c.Config.Workers.RedditCollectEnabled,
	))
	scheduler.RegisterWorker(analysis.NewRiskScanWorker(
		c.Services.Pipeline,
		c.Config.Workers.RiskScanInterval,
		c.Config.Workers.RiskScanEnabled,
	))
	c.Background.WorkerScheduler = scheduler
	c.Application.HealthHandler.AttachWorkers(scheduler)

	if c.Adapters.AlertConsumer != nil && c.Adapters.Notifier != nil {
		c.Background.AlertRelay = consumers.NewAlertRelay(
			c.Adapters.AlertConsumer,
			c.Adapters.Notifier,
			c.Log,
		)
	} else {
		c.Log.Info("Alert relay disabled (requires Kafka and Telegram)")
	}

	c.Log.Info("✓ Background processing initialized")
}

// ========================================
// Providers
// ========================================

func provideErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return errnoop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return errnoop.New()
	}

	log.Info("✓ Error tracking initialized (Sentry)")
	return tracker
}

func provideKafkaProducer(cfg *config.Config, log *logger.Logger) *kafka.Producer {
	log.Info("Initializing Kafka producer...")
	if len(cfg.Kafka.Brokers) == 0 {
		log.Warn("Kafka brokers not configured, using default localhost:9092")
		cfg.Kafka.Brokers = []string{"localhost:9092"}
	}

	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: cfg.Kafka.Brokers,
		Async:   false,
	})
	log.Info("✓ Kafka producer initialized")
	return producer
}

func provideKafkaConsumer(cfg *config.Config, topic string, log *logger.Logger) *kafka.Consumer {
	log.Infow("Initializing Kafka consumer", "topic", topic)
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{"localhost:9092"}
	}

	consumer := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers: cfg.Kafka.Brokers,
		GroupID: cfg.Kafka.GroupID,
		Topic:   topic,
	})
	log.Infow("✓ Kafka consumer initialized", "topic", topic)
	return consumer
}

// provideSentimentConfig maps the env-tunable weights onto the scorer's
// keyword table
func provideSentimentConfig(cfg config.SentimentConfig) sentimentservice.Config {
	base := sentimentservice.DefaultConfig()

	weights := make(map[string]float64, len(base.Weights))
	for keyword := range base.Weights {
		switch {
		case domainsentiment.IsReleaseSignal(keyword):
			weights[keyword] = cfg.WeightNewRelease
		case keyword == "Price Drop":
			weights[keyword] = cfg.WeightPriceDrop
		default:
			weights[keyword] = cfg.WeightDefault
		}
	}

	return sentimentservice.Config{
		Weights:       weights,
		DefaultWeight: cfg.WeightDefault,
	}
}
