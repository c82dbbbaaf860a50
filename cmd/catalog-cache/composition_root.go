package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	"go-catalog-cache/internal/backend/postgres"
	"go-catalog-cache/internal/backend/rest"
	"go-catalog-cache/internal/cache"
	"go-catalog-cache/internal/cache/coordinator"
	"go-catalog-cache/internal/cache/store"
	"go-catalog-cache/internal/cache_rules"
	"go-catalog-cache/internal/catalog"
	"go-catalog-cache/internal/config"
	"go-catalog-cache/internal/executor"
	"go-catalog-cache/internal/httpserver"
	"go-catalog-cache/internal/interfaces"
	"go-catalog-cache/internal/metrics"
	"go-catalog-cache/internal/scheduler"
)

// CompositionRoot holds all application dependencies and provides a centralized
// place for dependency injection, startup and resource cleanup.
type CompositionRoot struct {
	// Configuration
	Config     *config.Config
	Logger     *zap.Logger
	CacheRules *cache_rules.CacheConfig

	// Data access
	Backend     interfaces.Backend
	pgBackend   *postgres.Backend
	Store       *store.Store
	Executor    *executor.Executor
	Coordinator *coordinator.Coordinator

	// Services
	CatalogService *catalog.Service
	Warmer         *catalog.Warmer
	StatsCollector *scheduler.PeriodicTask
	HTTPServer     *httpserver.Server
}

// NewCompositionRoot creates and initializes all application dependencies.
//
// Initialization order:
// 1. Logger (needed by all other components)
// 2. Configuration and cache rules
// 3. Backend (REST or Postgres)
// 4. Cache store, executor and coordinator
// 5. Catalog service, warmer and stats collector
// 6. HTTP Server
func NewCompositionRoot(ctx context.Context) (*CompositionRoot, error) {
	root := &CompositionRoot{}

	// Initialize logger first
	if err := root.initLogger(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Load configuration
	if err := root.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Load cache rules
	if err := root.loadCacheRules(); err != nil {
		return nil, fmt.Errorf("failed to load cache rules: %w", err)
	}

	// Connect the data store
	if err := root.initBackend(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize backend: %w", err)
	}

	// Initialize cache components
	root.initCacheComponents()

	// Initialize services
	root.initServices()

	// Initialize HTTP server
	root.HTTPServer = httpserver.NewServer(root.CatalogService, root.Config.Server.RequestTimeout, root.Logger)

	return root, nil
}

// initLogger initializes the application logger
func (r *CompositionRoot) initLogger() error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	r.Logger = logger
	return nil
}

// loadConfig loads the application configuration and applies environment overrides
func (r *CompositionRoot) loadConfig() error {
	configPath := os.Getenv("CATALOG_CONFIG_FILE")
	if configPath == "" {
		configPath = "/app/catalog_config.yaml"
	}

	cfg, err := config.LoadConfig(configPath, r.Logger)
	if err != nil {
		return err
	}

	cfg.Backend.URL = GetBackendURL(cfg.Backend.URL, r.Logger)
	cfg.Backend.APIKey = GetBackendAPIKey(cfg.Backend.APIKey, r.Logger)

	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.RetryOutlivesRequest() {
		r.Logger.Warn("Retry policy can outlast the request deadline, slow misses will be cancelled",
			zap.Duration("worst_case", cfg.Retry.WorstCaseLatency()),
			zap.Duration("request_timeout", cfg.Server.RequestTimeout))
	}

	r.Config = cfg
	return nil
}

// loadCacheRules loads the per-class TTL windows
func (r *CompositionRoot) loadCacheRules() error {
	rulesPath := os.Getenv("CATALOG_RULES_FILE")
	if rulesPath == "" {
		rulesPath = "/app/cache_rules.yaml"
	}

	rules, err := cache_rules.LoadCacheRulesConfig(rulesPath, r.Logger)
	if err != nil {
		return err
	}
	r.CacheRules = rules
	return nil
}

// initBackend connects the configured catalog data store
func (r *CompositionRoot) initBackend(ctx context.Context) error {
	cfg := r.Config.Backend

	switch cfg.Driver {
	case config.DriverPostgres:
		pg, err := postgres.Connect(ctx, cfg.URL, cfg.MaxConns, r.Logger)
		if err != nil {
			return err
		}
		r.pgBackend = pg
		r.Backend = pg
	default:
		// Attempt timeouts are enforced by the executor
		client, err := rest.NewClient(cfg.URL, cfg.APIKey, &http.Client{}, r.Logger)
		if err != nil {
			return err
		}
		r.Backend = client
	}

	r.Logger.Info("Catalog backend initialized", zap.String("driver", cfg.Driver))
	return nil
}

// initCacheComponents initializes the store, the executor and the read-through coordinator
func (r *CompositionRoot) initCacheComponents() {
	r.Store = store.New(nil)
	r.Executor = executor.New(*r.Config.Retry, r.Logger)
	r.Coordinator = coordinator.New(r.Store, r.Executor, r.Logger)
}

// initServices initializes the catalog service and its background tasks
func (r *CompositionRoot) initServices() {
	r.CatalogService = catalog.NewService(
		r.Coordinator,
		r.Backend,
		cache.NewKeyBuilder(),
		r.CacheRules,
		r.Logger,
	)

	if r.Config.Warmup.Enabled {
		r.Warmer = catalog.NewWarmer(r.CatalogService, r.Config.Warmup.Interval, r.Logger)
	}

	r.StatsCollector = scheduler.New(r.Config.Metrics.StoreStatsInterval, func(context.Context) {
		stats := r.Store.Stats()
		metrics.UpdateCacheEntries(stats.Fresh, stats.Stale, stats.Expired)
	})
}

// StartBackground starts warmup and metrics collection
func (r *CompositionRoot) StartBackground() {
	if r.Warmer != nil {
		r.Warmer.Start()
	}
	r.StatsCollector.Start()
}

// StopBackground stops background tasks and waits for in-flight refreshes. Handlers
// still running after a timed out server shutdown no longer start refreshes.
func (r *CompositionRoot) StopBackground() {
	if r.Warmer != nil {
		r.Warmer.Stop()
	}
	r.StatsCollector.Stop()
	r.Coordinator.Shutdown()
}

// Cleanup performs cleanup of all resources
func (r *CompositionRoot) Cleanup() error {
	var errors []error

	// Close Postgres pool
	if r.pgBackend != nil {
		r.pgBackend.Close()
	}

	// Sync logger
	if r.Logger != nil {
		if err := r.Logger.Sync(); err != nil {
			errors = append(errors, fmt.Errorf("failed to sync logger: %w", err))
		}
	}

	// Return first error if any
	if len(errors) > 0 {
		return errors[0]
	}

	return nil
}

// ListenAddr returns the TCP address of the catalog server
func (r *CompositionRoot) ListenAddr() string {
	return fmt.Sprintf(":%d", r.Config.Server.Port)
}
