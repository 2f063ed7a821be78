// Package app wires configuration into a running inventory engine. Both the
// API server and the CLI build on it.
package app

import (
	"context"
	"database/sql"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/cache"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/catalog"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/config"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/llm"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/monitoring"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/observability"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/retrieval"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/storage"
)

// App holds every long-lived engine component.
type App struct {
	Config   *config.Config
	Logger   *observability.Logger
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	Store    *catalog.Store
	Watcher  *catalog.Watcher
	Fallback *retrieval.FallbackChain
	Router   *retrieval.Router
	Batch    *retrieval.BatchProcessor

	Cache    cache.Client
	DB       *sql.DB
	QueryLog *storage.QueryLogRepository
	Audit    *monitoring.AuditLogger

	checks map[string]func(context.Context) error
}

// Options adjusts how New builds the app.
type Options struct {
	// DisableWatch skips the catalog file watcher regardless of config.
	DisableWatch bool
	// Delegate overrides the configured language model client.
	Delegate retrieval.Delegate
}

// New builds the engine from cfg. The catalog must load; every other
// collaborator degrades to a local default when its backing service is
// not configured.
func New(ctx context.Context, cfg *config.Config, logger *observability.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = observability.NopLogger()
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
		checks:   make(map[string]func(context.Context) error),
	}
	if cfg.Observability.MetricsEnabled {
		a.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		a.Metrics = observability.NewMetrics(a.Registry)
	}

	store, err := catalog.Open(cfg.Catalog.Path, catalog.WithLogger(logger), catalog.WithMetrics(a.Metrics))
	if err != nil {
		return nil, err
	}
	a.Store = store
	a.checks["catalog"] = func(context.Context) error {
		if store.Snapshot() == nil {
			return errors.New("no catalog loaded")
		}
		return nil
	}

	qa, found, err := retrieval.LoadQAFile(cfg.Catalog.QAPath)
	if err != nil {
		return nil, err
	}
	if !found {
		logger.Warn().Str("path", cfg.Catalog.QAPath).Msg("QA source not found; curated answers disabled")
	}

	delegate := opts.Delegate
	if delegate == nil && cfg.LLMAvailable() {
		client, err := llm.NewClient(llm.Config{
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			APIKey:      cfg.LLM.APIKey,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			TopP:        cfg.LLM.TopP,
			SampleSize:  cfg.Engine.SampleSize,
		},
			llm.WithSampler(llm.NewRandomSampler(cfg.Engine.SampleSeed)),
			llm.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		delegate = client
	}
	if delegate == nil {
		logger.Warn().Msg("No language model configured; unanswerable questions get the default message")
	}

	a.Fallback = retrieval.NewFallbackChain(logger, qa, delegate, a.Metrics, retrieval.FallbackConfig{
		QACutoff:        cfg.Engine.QACutoff,
		DelegateTimeout: cfg.LLM.Timeout,
		MaxConcurrent:   cfg.LLM.MaxConcurrent,
	})

	if err := a.openCache(ctx); err != nil {
		a.Close()
		return nil, err
	}
	responseCache := retrieval.NewResponseCache(a.Cache, logger, retrieval.ResponseCacheConfig{
		DefaultTTL: cfg.Cache.TTL,
		Enabled:    true,
	})

	a.Router = retrieval.NewRouter(logger, store, a.Fallback, responseCache, a.Metrics, retrieval.RouterConfig{
		PageSize:        cfg.Engine.PageSize,
		ValueCutoff:     cfg.Engine.ValueCutoff,
		FallbackOnEmpty: cfg.Engine.FallbackOnEmpty,
		CacheResults:    true,
		Executor: retrieval.ExecutorConfig{
			TopN:         cfg.Engine.TopN,
			PreviewSize:  cfg.Engine.PreviewSize,
			EqualsCutoff: cfg.Engine.EqualsCutoff,
		},
	})
	a.Batch = retrieval.NewBatchProcessor(a.Router, cfg.LLM.MaxConcurrent, cfg.Server.RequestTimeout)

	if err := a.openAudit(ctx); err != nil {
		a.Close()
		return nil, err
	}
	a.Router.SetAuditor(a.Audit)

	if cfg.Catalog.Watch && !opts.DisableWatch {
		if err := a.startWatcher(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	return a, nil
}

func (a *App) openCache(ctx context.Context) error {
	cfg := a.Config.Cache
	if cfg.Driver != "redis" {
		a.Cache = cache.NewMemoryClient(cfg.MaxEntries)
		return nil
	}

	client, err := cache.NewRedisClient(ctx, cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		return err
	}
	a.Cache = client
	a.checks["redis"] = client.Ping
	return nil
}

func (a *App) openAudit(ctx context.Context) error {
	if !a.Config.Audit.Enabled {
		a.Audit = monitoring.NewAuditLogger(a.Logger, nil)
		return nil
	}

	cfg := a.Config.Audit
	opts := storage.Options{Driver: cfg.Driver, DSN: a.Config.AuditDSN()}
	if cfg.Driver == "sqlite" {
		opts.MaxOpenConns = cfg.SQLite.MaxOpenConns
		opts.JournalMode = cfg.SQLite.JournalMode
	} else {
		opts.MaxOpenConns = cfg.Postgres.MaxOpenConns
		opts.MaxIdleConns = cfg.Postgres.MaxIdleConns
		opts.ConnMaxLifetime = cfg.Postgres.ConnMaxLifetime
	}

	db, dialect, err := storage.Open(ctx, opts)
	if err != nil {
		return err
	}
	a.DB = db
	a.QueryLog = storage.NewQueryLogRepository(db)
	a.Audit = monitoring.NewAuditLogger(a.Logger, a.QueryLog)
	a.checks["database"] = db.PingContext

	a.Logger.Info().Str("driver", string(dialect)).Msg("Query audit log enabled")
	return nil
}

func (a *App) startWatcher(ctx context.Context) error {
	w, err := catalog.NewWatcher(a.Store, a.Config.Catalog.WatchDebounce, a.Logger)
	if err != nil {
		return err
	}
	w.OnReload(func(snap *catalog.Snapshot, err error) {
		a.Audit.LogCatalogReload(snap, err)
		if err == nil {
			if err := a.Router.InvalidateCache(context.Background()); err != nil {
				a.Logger.Warn().Err(err).Msg("Cache invalidation after reload failed")
			}
		}
	})
	if err := w.Start(ctx); err != nil {
		return err
	}
	a.Watcher = w
	return nil
}

// ReloadCatalog re-reads the catalog and drops cached responses on success.
func (a *App) ReloadCatalog(ctx context.Context) (*catalog.Snapshot, error) {
	snap, err := a.Store.Reload()
	a.Audit.LogCatalogReload(snap, err)
	if err != nil {
		return nil, err
	}
	if err := a.Router.InvalidateCache(ctx); err != nil {
		a.Logger.Warn().Err(err).Msg("Cache invalidation after reload failed")
	}
	return snap, nil
}

// ReloadQA re-reads the curated answers and drops cached responses.
func (a *App) ReloadQA(ctx context.Context) (*retrieval.QATable, error) {
	qa, _, err := retrieval.LoadQAFile(a.Config.Catalog.QAPath)
	if err != nil {
		return nil, err
	}
	a.Fallback.ReplaceQA(qa)
	if err := a.Router.InvalidateCache(ctx); err != nil {
		a.Logger.Warn().Err(err).Msg("Cache invalidation after QA reload failed")
	}
	return qa, nil
}

// Ready runs every readiness check and returns the failures by name.
func (a *App) Ready(ctx context.Context) map[string]string {
	failures := make(map[string]string)
	for name, check := range a.checks {
		if err := check(ctx); err != nil {
			failures[name] = err.Error()
		}
	}
	return failures
}

// Close releases every resource. It is safe on a partially built app.
func (a *App) Close() {
	if a.Watcher != nil {
		a.Watcher.Stop()
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Closing cache failed")
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Closing database failed")
		}
	}
}
