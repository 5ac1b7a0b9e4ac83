// Package http assembles the chi router: the shared middleware chain, the
// metrics and health endpoints, and the authenticated API surface the module
// handlers mount themselves on.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dana/internal/identity"
	"dana/internal/platform/metrics"
	"dana/internal/platform/middleware"
	"dana/internal/transport/http/shared"
)

// Registrar is anything that mounts routes on the authenticated API router.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck probes one dependency by name.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Config carries everything the router needs.
type Config struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Verifier identity.Verifier
	Actors   middleware.ActorResolver
	Handlers []Registrar
	Checks   []HealthCheck
}

// NewRouter builds the full HTTP surface. /metrics and /api/health are
// public; everything else under /api requires a bearer token.
func NewRouter(cfg Config) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Latency(cfg.Metrics))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/api/health", healthHandler(cfg.Checks))

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.RequireAuth(cfg.Verifier, cfg.Actors, cfg.Logger))
		for _, handler := range cfg.Handlers {
			handler.Register(api)
		}
	})

	return r
}

func healthHandler(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for _, check := range checks {
			if err := check.Check(r.Context()); err != nil {
				results[check.Name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[check.Name] = "ok"
		}

		body := map[string]any{"status": "ok"}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		if len(results) > 0 {
			body["checks"] = results
		}
		shared.WriteJSON(w, status, body)
	}
}
