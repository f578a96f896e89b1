package bootstrap

import (
	"context"
	"sync"

	chclient "argus/internal/adapters/clickhouse"
	"argus/internal/adapters/config"
	"argus/internal/adapters/danawa"
	"argus/internal/adapters/kafka"
	pgclient "argus/internal/adapters/postgres"
	redisclient "argus/internal/adapters/redis"
	"argus/internal/adapters/reddit"
	"argus/internal/adapters/telegram"
	"argus/internal/api"
	"argus/internal/api/health"
	"argus/internal/consumers"
	"argus/internal/domain/catalog"
	"argus/internal/domain/pricing"
	domainrisk "argus/internal/domain/risk"
	"argus/internal/domain/sentiment"
	"argus/internal/events"
	"argus/internal/services/alerting"
	"argus/internal/services/loader"
	"argus/internal/services/matcher"
	"argus/internal/services/normalizer"
	"argus/internal/services/pipeline"
	pricingservice "argus/internal/services/pricing"
	riskservice "argus/internal/services/risk"
	sentimentservice "argus/internal/services/sentiment"
	"argus/internal/workers"
	"argus/pkg/errors"
	"argus/pkg/logger"
)

// Container holds all application dependencies and their lifecycle.
// Components are organized in initialization order.
type Container struct {
	// Core configuration & logging
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Infrastructure layer (data stores)
	PG    *pgclient.Client
	CH    *chclient.Client
	Redis *redisclient.Client

	// Domain layer
	Repos    *Repositories
	Services *Services

	// External adapters
	Adapters *Adapters

	// Application layer
	Application *Application

	// Background processing
	Background *Background

	// Lifecycle management
	Lifecycle *Lifecycle
	WG        *sync.WaitGroup
	Context   context.Context
	Cancel    context.CancelFunc
}

// Repositories groups all domain repositories
type Repositories struct {
	Catalog  catalog.Repository
	Pricing  pricing.Repository
	Mentions sentiment.Repository
	Alerts   domainrisk.AlertRepository
	Seen     sentiment.SeenStore
}

// Services groups all domain services
type Services struct {
	Normalizer *normalizer.Service
	Matcher    *matcher.Service
	Scorer     *sentimentservice.Service
	Loader     *loader.Service
	Trend      *pricingservice.Service
	Risk       *riskservice.Service
	Alerting   *alerting.Service
	Pipeline   *pipeline.Service
}

// Adapters groups all external adapters
type Adapters struct {
	KafkaProducer *kafka.Producer
	AlertConsumer *kafka.Consumer
	Publisher     *events.Publisher
	Danawa        *danawa.Client
	Reddit        *reddit.Client
	Notifier      *telegram.Notifier
}

// Application groups application layer components
type Application struct {
	HTTPServer    *api.Server
	HealthHandler *health.Handler
	Handlers      *api.Handlers
}

// Background groups all background processing components
type Background struct {
	WorkerScheduler *workers.Scheduler
	AlertRelay      *consumers.AlertRelay
}

// NewContainer creates a new dependency container
func NewContainer() *Container {
	ctx, cancel := context.WithCancel(context.Background())

	return &Container{
		Repos:       &Repositories{},
		Services:    &Services{},
		Adapters:    &Adapters{},
		Application: &Application{},
		Background:  &Background{},
		Lifecycle:   NewLifecycle(),
		WG:          &sync.WaitGroup{},
		Context:     ctx,
		Cancel:      cancel,
	}
}

// MustInit initializes all components in the correct order.
// Panics on any initialization error (fail-fast at startup).
func (c *Container) MustInit() {
	c.MustInitConfig()
	c.MustInitInfrastructure()
	c.MustInitRepositories()
	c.MustInitAdapters()
	c.MustInitServices()
	c.MustInitApplication()
	c.MustInitBackground()
}

// Start starts the serve-mode components: background workers, the
// alert relay consumer and the HTTP server
func (c *Container) Start() error {
	c.Log.Info("Starting all systems...")

	if err := c.Background.WorkerScheduler.Start(c.Context); err != nil {
		return errors.Wrap(err, "failed to start workers")
	}

	if c.Background.AlertRelay != nil {
		c.WG.Add(1)
		go func() {
			defer c.WG.Done()
			if err := c.Background.AlertRelay.Start(c.Context); err != nil && c.Context.Err() == nil {
				c.Log.Error("Alert relay failed", "error", err)
			}
		}()
	}

	c.WG.Add(1)
	go func() {
		defer c.WG.Done()
		if err := c.Application.HTTPServer.Start(); err != nil {
			c.Log.Errorf("HTTP server failed: %v", err)
			c.Cancel() // Trigger shutdown on fatal HTTP error
		}
	}()

	c.Log.Info("✓ All systems operational")
	return nil
}

// Shutdown performs graceful shutdown in the correct order
func (c *Container) Shutdown() {
	c.Log.Info("Initiating graceful shutdown...")

	// Cancel application context to signal all components to stop
	c.Cancel()

	c.Lifecycle.Shutdown(
		c.WG,
		c.Application.HTTPServer,
		c.Background.WorkerScheduler,
		c.Adapters.AlertConsumer,
		c.Adapters.KafkaProducer,
		c.PG,
		c.CH,
		c.Redis,
		c.ErrorTracker,
		c.Log,
	)
}
