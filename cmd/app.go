package main

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lca-cli/internal/lca"
	"github.com/sells-group/lca-cli/internal/lease"
	"github.com/sells-group/lca-cli/internal/resilience"
	"github.com/sells-group/lca-cli/internal/scenario"
	"github.com/sells-group/lca-cli/internal/store"
	"github.com/sells-group/lca-cli/internal/template"
)

// appEnv holds the store, catalog, and service shared by every command.
type appEnv struct {
	Store   store.Store
	Catalog *template.Catalog
	Service *scenario.Service
	redis   redis.UniversalClient
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.redis != nil {
		_ = e.redis.Close()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initApp validates config for mode, opens and migrates the store, loads the
// template catalog, and builds the scenario service. Callers should defer
// env.Close().
func initApp(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	catalog, err := template.Load(cfg.Templates.Path)
	if err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	env := &appEnv{Store: st, Catalog: catalog}

	if err := st.Migrate(ctx); err != nil {
		env.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	locker, err := env.initLocker(ctx)
	if err != nil {
		env.Close()
		return nil, err
	}

	engine := lca.NewEngine(lca.Options{
		DefaultEmissionFactor: cfg.Engine.DefaultEmissionFactor,
		DefaultRecoveryRate:   cfg.Engine.DefaultRecoveryRate,
	})
	env.Service = scenario.New(st, catalog, engine, locker)
	return env, nil
}

func retryConfig(operation string) resilience.RetryConfig {
	rc := resilience.FromRetryConfig(cfg.Retry.MaxAttempts, cfg.Retry.InitialBackoffMs)
	rc.OnRetry = resilience.RetryLogger(operation)
	return rc
}

// initStore opens the configured store, retrying transient connection errors.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "lca.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return resilience.DoVal(ctx, retryConfig("connect postgres"), func(ctx context.Context) (store.Store, error) {
			pg, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
				MaxConns: cfg.Store.MaxConns,
				MinConns: cfg.Store.MinConns,
			})
			if err != nil {
				return nil, err
			}
			return pg, nil
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initLocker returns the compute lease for the configured driver.
func (e *appEnv) initLocker(ctx context.Context) (lease.Locker, error) {
	switch cfg.Lease.Driver {
	case "", "local":
		return lease.NewLocal(), nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:        cfg.Lease.RedisAddr,
			DialTimeout: 5 * time.Second,
		})
		err := resilience.Do(ctx, retryConfig("ping redis"), func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		if err != nil {
			_ = rdb.Close()
			return nil, eris.Wrap(err, "redis ping")
		}
		e.redis = rdb
		zap.L().Info("using redis compute lease", zap.String("addr", cfg.Lease.RedisAddr))
		return lease.NewRedis(rdb, time.Duration(cfg.Lease.TTLSecs)*time.Second), nil
	default:
		return nil, eris.Errorf("unsupported lease driver: %s", cfg.Lease.Driver)
	}
}
