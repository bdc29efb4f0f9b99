// Package app assembles the ingest pipeline from configuration. Both
// binaries build their components through it.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"job-ingest-go/internal/config"
	"job-ingest-go/internal/ingest"
	"job-ingest-go/internal/logger"
	"job-ingest-go/internal/metrics"
	"job-ingest-go/internal/resolver"
	"job-ingest-go/internal/salary"
	"job-ingest-go/internal/sources"
	"job-ingest-go/internal/storage"
	"job-ingest-go/internal/storage/memory"
	"job-ingest-go/internal/storage/postgres"
	"job-ingest-go/internal/storage/supabase"
	"job-ingest-go/pkg/httpclient"
)

// App owns every long-lived component. Close releases them.
type App struct {
	Config     *config.Config
	Log        logger.Logger
	Store      storage.Store
	Normalizer *salary.Normalizer
	Resolver   *resolver.Resolver
	Sources    *sources.SourceManager
	Metrics    *metrics.Metrics
	Runner     *ingest.Runner

	redis *redis.Client
}

// New builds the pipeline. ctx bounds startup work such as migrations.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &App{Config: cfg, Log: log}
	ok := false
	defer func() {
		if !ok {
			_ = a.Close()
		}
	}()

	store, err := OpenStore(ctx, cfg.Storage, log)
	if err != nil {
		return nil, err
	}
	a.Store = store

	locker, err := a.locker()
	if err != nil {
		return nil, err
	}

	a.Normalizer = salary.NewNormalizer(cfg.Policy())
	a.Resolver = resolver.New(a.Store, a.Normalizer,
		resolver.WithLocker(locker),
		resolver.WithPriorities(cfg.SourcePriorities()),
		resolver.WithWriteTimeout(cfg.Runner.WriteTimeout),
		resolver.WithLogger(log),
	)

	client := httpclient.NewHttpClient(cfg.Retry.RequestTimeout,
		httpclient.WithRetry(cfg.HTTPRetry()),
		httpclient.WithLogger(log),
	)
	a.Sources, err = sources.NewManagerFromConfig(cfg.Sources, client, log)
	if err != nil {
		return nil, err
	}

	a.Metrics = metrics.New()
	a.Runner = ingest.NewRunner(a.Sources, a.Resolver, cfg.IngestConfig(),
		ingest.WithRecorder(a.Metrics),
		ingest.WithLogger(log),
	)

	ok = true
	return a, nil
}

// OpenStore connects the configured storage driver. Postgres is migrated
// when AutoMigrate is set.
func OpenStore(ctx context.Context, cfg config.StorageConfig, log logger.Logger) (storage.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory, "":
		log.Warn("using in-memory storage; resolved jobs are lost on exit")
		return memory.New(), nil
	case config.DriverPostgres:
		store, err := postgres.Open(cfg.DSN)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := store.Migrate(ctx); err != nil {
				_ = store.Close()
				return nil, err
			}
			log.Info("database schema is up to date")
		}
		return store, nil
	case config.DriverSupabase:
		return supabase.New(cfg.SupabaseURL, cfg.SupabaseKey)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// locker picks the Redis lock when configured, else an in-process one.
func (a *App) locker() (resolver.KeyLocker, error) {
	if a.Config.Redis.URL == "" {
		return resolver.NewStripedLocker(a.Config.Runner.LockStripes), nil
	}
	opts, err := redis.ParseURL(a.Config.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	a.redis = redis.NewClient(opts)
	a.Log.Info("using redis key lock", logger.String("addr", opts.Addr))
	return resolver.NewRedisLocker(a.redis, a.Config.LockConfig()), nil
}

// Close releases the store and the Redis client.
func (a *App) Close() error {
	var errs []error
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	return errors.Join(errs...)
}
