// Package httptransport composes the HTTP surface: middleware chain, public
// probes, and the authenticated API group. Handlers live next to their
// domains; this package only mounts them.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hoopwatch/internal/platform/metrics"
	"hoopwatch/internal/platform/middleware"
	"hoopwatch/pkg/platform/httputil"
)

// Registrar is anything that can mount routes; all domain handlers satisfy it.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports dependency liveness for the readiness probe.
type HealthChecker func() error

// Deps collects everything the router needs.
type Deps struct {
	Verifier       middleware.CredentialVerifier
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	RequestTimeout time.Duration
	Handlers       []Registrar
	Health         map[string]HealthChecker
}

// NewRouter builds the full handler tree.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(middleware.Instrument(deps.Metrics))
	}

	r.Get("/healthz", handleHealth(deps.Health))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		if deps.RequestTimeout > 0 {
			api.Use(middleware.Timeout(deps.RequestTimeout))
		}
		api.Use(middleware.RequireAuth(deps.Verifier, deps.Logger))
		for _, h := range deps.Handlers {
			h.Register(api)
		}
	})

	return r
}

func handleHealth(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		report := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(); err != nil {
				status = http.StatusServiceUnavailable
				report[name] = err.Error()
				continue
			}
			report[name] = "ok"
		}
		httputil.WriteJSON(w, status, map[string]any{
			"status": http.StatusText(status),
			"checks": report,
		})
	}
}
