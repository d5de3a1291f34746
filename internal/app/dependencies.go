// Package app assembles the long-lived dependencies shared by the API and the worker.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"

	"github.com/noah-isme/backend-tiket/internal/cache"
	"github.com/noah-isme/backend-tiket/internal/checkout"
	"github.com/noah-isme/backend-tiket/internal/config"
	"github.com/noah-isme/backend-tiket/internal/db"
	"github.com/noah-isme/backend-tiket/internal/health"
	"github.com/noah-isme/backend-tiket/internal/obs"
	"github.com/noah-isme/backend-tiket/internal/pricing"
	"github.com/noah-isme/backend-tiket/internal/quote"
	"github.com/noah-isme/backend-tiket/internal/ratelimit"
	"github.com/noah-isme/backend-tiket/internal/resilience"
	"github.com/noah-isme/backend-tiket/internal/ticketing"
)

// Dependencies enumerates the services wired at startup.
type Dependencies struct {
	Config     *config.Config
	Logger     zerolog.Logger
	DB         *pgxpool.Pool
	Redis      *redis.Client
	Validator  *validator.Validate
	Limiter    *limiter.Limiter
	TaskClient *asynq.Client
	Breaker    *resilience.Breaker
	Calculator *pricing.Calculator
	Quotes     *quote.Store
}

// Options toggles optional instrumentation.
type Options struct {
	ServiceName  string
	RedisMetrics bool
	// TaskClient is only needed by processes that enqueue quotes.
	TaskClient bool
}

// New connects to Postgres and Redis and builds the pricing stack on top of them.
// Close must be called on the result.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts Options) (*Dependencies, error) {
	d := &Dependencies{Config: cfg, Logger: logger, Validator: checkout.NewValidator()}

	if cfg.DBAutoMigrate {
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			return nil, err
		}
		logger.Info().Msg("database migrations applied")
	}

	pool, err := newPool(ctx, cfg, opts.ServiceName)
	if err != nil {
		return nil, err
	}
	d.DB = pool

	rdb, err := newRedis(ctx, cfg.RedisURL, logger, opts.RedisMetrics)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.Redis = rdb

	d.Limiter, err = ratelimit.NewLimiter(rdb, "ratelimit:pricing", cfg.RateLimitPricing)
	if err != nil {
		d.Close()
		return nil, err
	}

	d.Breaker = resilience.NewBreaker("postgres", cfg.BreakerMinRequests, cfg.BreakerFailureRatio, cfg.BreakerOpenFor).WithLogger(logger)
	var lookup pricing.Lookup = ticketing.GuardedLookup{Next: ticketing.NewStore(pool), Breaker: d.Breaker}
	lookup = ticketing.CachedLookup{
		Next:   lookup,
		Cache:  cache.New(rdb, "tiket:", cfg.EventCacheTTL),
		Logger: logger,
	}
	d.Calculator, err = pricing.NewCalculator(pricing.CalculatorConfig{
		Lookup:          lookup,
		Logger:          &logger,
		DefaultCurrency: cfg.PricingDefaultCurrency,
		ActiveFeesOnly:  cfg.PricingActiveFeesOnly,
	})
	if err != nil {
		d.Close()
		return nil, err
	}
	d.Quotes = quote.NewStore(pool)

	if opts.TaskClient && cfg.QuoteRecordingEnabled {
		connOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("parse redis uri for tasks: %w", err)
		}
		d.TaskClient = asynq.NewClient(connOpt)
	}
	return d, nil
}

// CheckoutService returns the pricing service, recording quotes when enabled.
func (d *Dependencies) CheckoutService() *checkout.Service {
	svc := &checkout.Service{Pricer: d.Calculator}
	if d.TaskClient != nil {
		svc.Quotes = quote.Enqueuer{Client: d.TaskClient, Queue: d.Config.QuoteQueue}
	}
	return svc
}

// HealthProbes lists the readiness checks for the wired dependencies.
func (d *Dependencies) HealthProbes() []health.Probe {
	probes := []health.Probe{
		{Name: "db", Timeout: 500 * time.Millisecond, Check: func(ctx context.Context) error {
			if d.DB == nil {
				return errors.New("db not configured")
			}
			return d.DB.Ping(ctx)
		}},
		{Name: "redis", Timeout: 300 * time.Millisecond, Check: func(ctx context.Context) error {
			if d.Redis == nil {
				return errors.New("redis not configured")
			}
			return d.Redis.Ping(ctx).Err()
		}},
	}
	if d.Breaker != nil {
		probes = append(probes, breakerProbe("db_breaker", d.Breaker))
	}
	return probes
}

// breakerProbe fails only while the breaker is inside its cool-off. Once that elapses the
// probe passes so the pod receives traffic again and the breaker can close.
func breakerProbe(name string, b *resilience.Breaker) health.Probe {
	return health.Probe{Name: name, Check: func(context.Context) error {
		if b.Rejecting() {
			return resilience.ErrOpenCircuit
		}
		return nil
	}}
}

// Close releases connections in reverse order of acquisition.
func (d *Dependencies) Close() {
	if d.TaskClient != nil {
		if err := d.TaskClient.Close(); err != nil {
			d.Logger.Error().Err(err).Msg("close task client")
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error().Err(err).Msg("close redis")
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
}

func newPool(ctx context.Context, cfg *config.Config, serviceName string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	if serviceName != "" {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = serviceName
	}
	if cfg.DBMaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.DBMaxConns)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(pctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(pctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

func newRedis(ctx context.Context, url string, logger zerolog.Logger, metrics bool) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metrics {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
