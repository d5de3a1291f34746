package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-tiket/internal/checkout"
	"github.com/noah-isme/backend-tiket/internal/health"
	"github.com/noah-isme/backend-tiket/internal/obs"
	"github.com/noah-isme/backend-tiket/internal/ratelimit"
	"github.com/noah-isme/backend-tiket/internal/security"
)

// RouterConfig lists the pieces the HTTP router is assembled from.
type RouterConfig struct {
	Logger         zerolog.Logger
	Checkout       *checkout.Handler
	Health         health.Handler
	Limiter        ratelimit.Getter
	Metrics        *obs.HTTPMetrics
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
	BodyLimit      int64
}

// NewRouter builds the API router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Metrics != nil {
		r.Use(obs.HTTPObs{Metrics: cfg.Metrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: cfg.Logger}.Middleware)
	r.Use(security.Headers{}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg.AllowedOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	}))

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/health/live", cfg.Health.Live)
	r.Get("/health/ready", cfg.Health.Ready)

	if cfg.Checkout != nil {
		limited := ratelimit.Handler{
			Limiter: cfg.Limiter,
			OnError: func(err error) { cfg.Logger.Warn().Err(err).Msg("rate limiter unavailable") },
		}
		r.Route("/api/v1", func(v chi.Router) {
			v.Use(security.BodyLimit{Max: cfg.BodyLimit}.Middleware)
			v.Use(limited.Middleware)
			cfg.Checkout.Routes(v)
		})
	}
	return r
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
