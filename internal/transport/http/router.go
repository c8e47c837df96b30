package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"fraudintel/internal/platform/metrics"
	"fraudintel/internal/search/handler"
	"fraudintel/pkg/platform/httputil"
	"fraudintel/pkg/platform/middleware/admin"
	authmw "fraudintel/pkg/platform/middleware/auth"
	"fraudintel/pkg/platform/middleware/metadata"
	"fraudintel/pkg/platform/middleware/request"
	"fraudintel/pkg/platform/middleware/requesttime"
)

const (
	requestTimeout = 30 * time.Second
	healthTimeout  = 2 * time.Second
)

// HealthCheck reports whether one backing service is reachable.
type HealthCheck func(ctx context.Context) error

// Invalidator drops a cached dataset.
type Invalidator interface {
	Invalidate()
}

// Dependencies is everything the router mounts.
type Dependencies struct {
	Logger             *slog.Logger
	Search             *handler.Handler
	Validator          authmw.JWTValidator
	Metrics            *metrics.Metrics
	Gatherer           prometheus.Gatherer
	CORSAllowedOrigins []string
	AdminToken         string
	Decoy              Invalidator
	HealthChecks       map[string]HealthCheck
}

// NewRouter wires the public endpoints. Everything except /health and
// /metrics goes through the request chain; /search also requires a token.
func NewRouter(d Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(request.Recovery(d.Logger))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)

	r.Get("/health", handleHealth(d.HealthChecks))
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(api chi.Router) {
		api.Use(request.Logger(d.Logger))
		api.Use(chimw.Timeout(requestTimeout))
		api.Use(request.ContentTypeJSON)
		if d.Metrics != nil {
			api.Use(request.Latency(d.Metrics))
		}

		api.Group(func(authed chi.Router) {
			authed.Use(authmw.RequireAuth(d.Validator, d.Logger))
			d.Search.Register(authed)
		})

		if d.Decoy != nil {
			api.Group(func(ops chi.Router) {
				ops.Use(admin.RequireAdminToken(d.AdminToken, d.Logger))
				ops.Post("/admin/decoy/refresh", handleDecoyRefresh(d.Decoy, d.Logger))
			})
		}
	})

	// rs/cors treats an empty list as "*"; no origins configured means no
	// cross-origin access.
	if len(d.CORSAllowedOrigins) == 0 {
		return r
	}
	return cors.New(cors.Options{
		AllowedOrigins: d.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", request.HeaderRequestID},
		ExposedHeaders: []string{request.HeaderRequestID},
	}).Handler(r)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func handleHealth(checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(names))}
		status := http.StatusOK
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}

func handleDecoyRefresh(decoy Invalidator, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		decoy.Invalidate()
		logger.InfoContext(r.Context(), "decoy dataset invalidated",
			"event", "decoy_refreshed",
			"log_type", "audit",
		)
		w.WriteHeader(http.StatusNoContent)
	}
}
