package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-tieshop/internal/cache"
	"github.com/noah-isme/backend-tieshop/internal/config"
	"github.com/noah-isme/backend-tieshop/internal/health"
	"github.com/noah-isme/backend-tieshop/internal/ratelimit"
	"github.com/noah-isme/backend-tieshop/internal/resilience"
	"github.com/noah-isme/backend-tieshop/internal/store"
)

// Dependencies holds the shared infrastructure every module is built from.
// Redis is optional; without it the report cache, idempotency keys and the
// shared login limiter degrade to their in-process or no-op forms.
type Dependencies struct {
	Config       *config.Config
	Logger       zerolog.Logger
	DB           *pgxpool.Pool
	Store        *store.Store
	Redis        *redis.Client
	Cache        *cache.Cache
	LoginLimiter *ratelimit.Limiter
}

// Options tweaks how New connects.
type Options struct {
	AppName        string
	TraceRedis     bool
	MetricsRedis   bool
	SkipMigrations bool
}

// New connects to PostgreSQL and, when configured, Redis. Migrations run
// first unless disabled.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts Options) (*Dependencies, error) {
	if cfg.MigrateOnStart && !opts.SkipMigrations {
		if err := store.Migrate(cfg.DatabaseURL); err != nil {
			return nil, err
		}
		logger.Info().Msg("migrations applied")
	}

	pool, err := store.NewPool(ctx, cfg.DatabaseURL, opts.AppName)
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
		DB:     pool,
		Store:  store.NewStore(pool),
	}

	if cfg.RedisURL != "" {
		client, err := connectRedis(ctx, cfg.RedisURL, opts)
		if err != nil {
			pool.Close()
			return nil, err
		}
		deps.Redis = client
	} else {
		logger.Warn().Msg("REDIS_URL not set; report cache and idempotency keys disabled")
	}

	breaker := resilience.NewBreaker(5, 0.5, 30*time.Second).
		WithTarget("report_cache").
		WithLogger(logger)
	deps.Cache = cache.New(deps.Redis, cfg.ReportCacheTTL).WithBreaker(breaker)

	deps.LoginLimiter, err = ratelimit.New(cfg.LoginRateLimit, deps.Redis, "tieshop:login")
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("login rate limit: %w", err)
	}
	return deps, nil
}

func connectRedis(ctx context.Context, url string, opts Options) (*redis.Client, error) {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(redisOpts)
	if opts.TraceRedis {
		if err := redisotel.InstrumentTracing(client); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("instrument redis tracing: %w", err)
		}
	}
	if opts.MetricsRedis {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("instrument redis metrics: %w", err)
		}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Probes returns the readiness checks for the connected backends. Redis is
// reported but never fails readiness.
func (d *Dependencies) Probes(dbTimeout, redisTimeout time.Duration) []health.Probe {
	probes := []health.Probe{{
		Name:    "database",
		Timeout: dbTimeout,
		Check:   func(ctx context.Context) error { return d.DB.Ping(ctx) },
	}}
	redisProbe := health.Probe{Name: "redis", Timeout: redisTimeout, Optional: true}
	if d.Redis != nil {
		redisProbe.Check = func(ctx context.Context) error { return d.Redis.Ping(ctx).Err() }
	}
	return append(probes, redisProbe)
}

// Close releases every connection held by d.
func (d *Dependencies) Close() {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error().Err(err).Msg("close redis")
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
}
