package di

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"infinicraft-backend/application/ports"
	"infinicraft-backend/application/services"
	"infinicraft-backend/infrastructure/cache"
	"infinicraft-backend/infrastructure/config"
	"infinicraft-backend/infrastructure/llm"
	"infinicraft-backend/infrastructure/messaging/eventbridge"
	"infinicraft-backend/infrastructure/messaging/inmemory"
	"infinicraft-backend/infrastructure/persistence/dynamodb"
	"infinicraft-backend/infrastructure/persistence/memory"
	"infinicraft-backend/infrastructure/persistence/sqlite"
	pkgerrors "infinicraft-backend/pkg/errors"
	"infinicraft-backend/pkg/observability"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	logger, err := observability.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, func() { _ = logger.Sync() }, nil
}

// ProvideStore opens the configured store backend
func ProvideStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.Store, func(), error) {
	var store ports.Store

	switch cfg.StoreBackend {
	case config.StoreDynamoDB:
		client, err := dynamodb.NewClient(ctx, cfg.AWSRegion, cfg.DynamoDBEndpoint)
		if err != nil {
			return nil, nil, err
		}
		store = dynamodb.NewStore(client, cfg.DynamoDBTable, logger)
	case config.StoreSQLite:
		s, err := sqlite.Open(cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		store = s
	case config.StoreMemory:
		store = memory.NewInMemoryStore()
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	logger.Info("Store opened", zap.String("backend", cfg.StoreBackend))
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close store", zap.Error(err))
		}
	}
	return store, cleanup, nil
}

// ProvideCache builds the read-through cache; a nil cache disables caching
func ProvideCache(cfg *config.Config, logger *zap.Logger) (ports.Cache, func(), error) {
	switch cfg.CacheBackend {
	case config.CacheMemory:
		c := cache.NewInMemoryCache()
		return c, func() { _ = c.Close() }, nil
	case config.CacheRedis:
		c, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisDB, "infinicraft:", logger)
		if err != nil {
			return nil, nil, err
		}
		return c, func() { _ = c.Close() }, nil
	case config.CacheNone, "":
		return nil, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}

// ProvideElementRepository fronts the store's elements with the cache when one is configured
func ProvideElementRepository(store ports.Store, c ports.Cache, cfg *config.Config, logger *zap.Logger) ports.ElementRepository {
	if c == nil {
		return store.Elements()
	}
	return cache.NewCachedElementRepository(store.Elements(), c, cfg.CacheTTL, logger)
}

// ProvideCombinationRepository fronts the store's combinations with the cache when one is configured
func ProvideCombinationRepository(store ports.Store, c ports.Cache, cfg *config.Config, logger *zap.Logger) ports.CombinationRepository {
	if c == nil {
		return store.Combinations()
	}
	return cache.NewCachedCombinationRepository(store.Combinations(), c, cfg.CacheTTL, logger)
}

// ProvideBaseElementRepository returns the store's base set repository
func ProvideBaseElementRepository(store ports.Store) ports.BaseElementRepository {
	return store.BaseElements()
}

// ProvideDiscoveryRepository returns the store's discovery repository
func ProvideDiscoveryRepository(store ports.Store) ports.DiscoveryRepository {
	return store.Discoveries()
}

// ProvideCollector creates the Prometheus collector, or nil when metrics are off
func ProvideCollector(cfg *config.Config) *observability.Collector {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewCollector("infinicraft")
}

// ProvideMetrics adapts the collector to the services' metrics port
func ProvideMetrics(collector *observability.Collector) ports.Metrics {
	if collector == nil {
		return services.NoopMetrics{}
	}
	return collector
}

// ProvideTracing installs the OpenTelemetry provider when tracing is enabled
func ProvideTracing(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	if !cfg.EnableTracing {
		return nil, func() {}, nil
	}

	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName: "infinicraft-backend",
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Failed to flush traces", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

// ProvideTextGenerator builds the chat completions client behind a circuit
// breaker. Without an API key it returns nil and fabrication is disabled.
func ProvideTextGenerator(cfg *config.Config, logger *zap.Logger) (ports.TextGenerator, error) {
	if !cfg.GeneratorEnabled() {
		logger.Warn("No text generation API key configured; unknown combinations will fail")
		return nil, nil
	}

	client, err := llm.NewClient(llm.Config{
		BaseURL: cfg.LLMBaseURL,
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
		Timeout: cfg.GenerationTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	breaker := llm.DefaultBreakerConfig()
	if cfg.BreakerMaxFailures > 0 {
		breaker.MaxFailures = uint32(cfg.BreakerMaxFailures)
	}
	if cfg.BreakerOpenTimeout > 0 {
		breaker.OpenTimeout = cfg.BreakerOpenTimeout
	}
	return llm.NewBreakingGenerator(client, breaker, logger), nil
}

// ProvideEventPublisher publishes to EventBridge when events are enabled and
// to an in-process bus otherwise
func ProvideEventPublisher(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.EventPublisher, error) {
	if !cfg.EnableEvents {
		bus := inmemory.NewBus(100, logger)
		bus.Subscribe(inmemory.Wildcard, inmemory.LogHandler(logger))
		return bus, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := awseventbridge.NewFromConfig(awsCfg)
	return eventbridge.NewPublisher(client, cfg.EventBusName, cfg.EventSource, logger), nil
}

// ProvideBaseElementSpecs converts the configured base elements
func ProvideBaseElementSpecs(cfg *config.Config) []services.BaseElementSpec {
	specs := make([]services.BaseElementSpec, 0, len(cfg.BaseElements))
	for _, b := range cfg.BaseElements {
		specs = append(specs, services.BaseElementSpec{Name: b.Name, Symbol: b.Symbol})
	}
	return specs
}

// ProvideCatalog creates the element catalog
func ProvideCatalog(elements ports.ElementRepository, base ports.BaseElementRepository, specs []services.BaseElementSpec, logger *zap.Logger) *services.Catalog {
	return services.NewCatalog(elements, base, specs, logger)
}

// ProvideCombinationIndex creates the combination index
func ProvideCombinationIndex(repo ports.CombinationRepository, catalog *services.Catalog, metrics ports.Metrics, logger *zap.Logger) *services.CombinationIndex {
	return services.NewCombinationIndex(repo, catalog, metrics, logger)
}

// ProvideDiscoveryTracker creates the discovery tracker
func ProvideDiscoveryTracker(repo ports.DiscoveryRepository, catalog *services.Catalog, logger *zap.Logger) *services.DiscoveryTracker {
	return services.NewDiscoveryTracker(repo, catalog, logger)
}

// ProvideGenerator creates the generator adapter
func ProvideGenerator(
	text ports.TextGenerator,
	catalog *services.Catalog,
	index *services.CombinationIndex,
	cfg *config.Config,
	metrics ports.Metrics,
	logger *zap.Logger,
) *services.Generator {
	return services.NewGenerator(text, catalog, index, cfg.GenerationTimeout, metrics, logger)
}

// ProvideCraftingService creates the crafting service
func ProvideCraftingService(
	catalog *services.Catalog,
	index *services.CombinationIndex,
	generator *services.Generator,
	tracker *services.DiscoveryTracker,
	publisher ports.EventPublisher,
	metrics ports.Metrics,
	logger *zap.Logger,
) *services.CraftingService {
	return services.NewCraftingService(catalog, index, generator, tracker, publisher, metrics, logger)
}

// ProvideErrorHandler creates the HTTP error handler; stack traces are only exposed in development
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}
