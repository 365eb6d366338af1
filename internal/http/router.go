package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"campaign-builder/internal/middleware"
)

// RouterConfig configures the shared middleware stack.
type RouterConfig struct {
	AllowedOrigins    []string
	RequestTimeout    time.Duration
	RateLimit         middleware.RateLimitConfig
	// TrustProxyHeaders rewrites RemoteAddr from X-Forwarded-For / X-Real-IP.
	// Enable only behind a proxy that sets them.
	TrustProxyHeaders bool
}

type Router struct {
	chi.Router
}

func NewRouter(cfg RouterConfig) *Router {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 120 * time.Second
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()

	// Use chi middleware with aliases to avoid conflicts
	r.Use(chimiddleware.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.Logging)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Timeout(cfg.RequestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(middleware.RateLimit(cfg.RateLimit))

	return &Router{r}
}

// RegisterPlannerRoutes registers planner routes
func (r *Router) RegisterPlannerRoutes(h *PlannerHandler) {
	h.RegisterRoutes(r)
}

// ReadinessCheck reports whether one backing service is usable.
type ReadinessCheck func(ctx context.Context) error

// RegisterHealthRoutes registers health check routes. /ready runs every check.
func (r *Router) RegisterHealthRoutes(checks map[string]ReadinessCheck) {
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	r.Get("/ready", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				log.Warn().Err(err).Str("check", name).Msg("Readiness check failed")
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		state := "ready"
		if status != http.StatusOK {
			state = "not_ready"
		}
		writeJSON(w, status, map[string]interface{}{
			"status":    state,
			"checks":    results,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})
}

// RegisterMetricsRoutes exposes the collectors in g at /metrics
func (r *Router) RegisterMetricsRoutes(g prometheus.Gatherer) {
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}
