package api

import (
	"net/http"

	"github.com/gatherhall/server/internal/api/handlers"
	"github.com/gatherhall/server/internal/api/middleware"
	"github.com/gatherhall/server/internal/auth"
	"github.com/gatherhall/server/internal/config"
	"github.com/gatherhall/server/internal/metrics"
	"github.com/gatherhall/server/internal/uploads"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterDeps carries everything the HTTP surface needs. The caller wires
// services and stores; the router only arranges routes and middleware.
type RouterDeps struct {
	Config  config.Config
	Logger  zerolog.Logger
	Tokens  *auth.JWTManager
	Auth    *handlers.AuthHandler
	Events  *handlers.EventsHandler
	Health  *handlers.HealthHandler
	Images  *uploads.Store
	Metrics bool
}

func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	requireAuth := middleware.RequireAuth(deps.Tokens)
	requireOrganiser := middleware.RequireRole(auth.RoleOrganiser)
	authLimit := middleware.AuthRateLimit(deps.Config.RateLimit)
	jsonBody := middleware.RequestSize(middleware.DefaultMaxBodySize)
	multipartBody := middleware.RequestSize(deps.Config.Uploads.MaxBytes + middleware.DefaultMaxBodySize)

	// Credential endpoints: throttled per IP, JSON bodies capped.
	mux.Handle("POST /api/register", authLimit(jsonBody(http.HandlerFunc(deps.Auth.Register))))
	mux.Handle("POST /api/login", authLimit(jsonBody(http.HandlerFunc(deps.Auth.Login))))
	mux.Handle("POST /api/forgot-password", authLimit(jsonBody(http.HandlerFunc(deps.Auth.ForgotPassword))))
	mux.Handle("POST /api/reset-password", jsonBody(http.HandlerFunc(deps.Auth.ResetPassword)))
	mux.Handle("GET /api/me", requireAuth(http.HandlerFunc(deps.Auth.Me)))

	// Event catalogue: reads are public, writes need a session.
	mux.Handle("GET /api/events", http.HandlerFunc(deps.Events.List))
	mux.Handle("GET /api/events/{id}", http.HandlerFunc(deps.Events.Get))
	mux.Handle("POST /api/events", requireAuth(requireOrganiser(multipartBody(http.HandlerFunc(deps.Events.Create)))))
	mux.Handle("DELETE /api/events/{id}", requireAuth(http.HandlerFunc(deps.Events.Delete)))
	mux.Handle("POST /api/events/{id}/register", requireAuth(jsonBody(http.HandlerFunc(deps.Events.RegisterForEvent))))

	mux.Handle("GET /healthz", http.HandlerFunc(deps.Health.Healthz))
	mux.Handle("GET /readyz", http.HandlerFunc(deps.Health.Readyz))
	if deps.Metrics {
		mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	}
	if deps.Images != nil {
		mux.Handle("GET /uploads/", deps.Images.Handler())
	}

	var handler http.Handler = mux
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.CORS(deps.Config.CORS, deps.Logger)(handler)
	handler = middleware.RequestLogging(deps.Logger)(handler)
	handler = middleware.CorrelationID(deps.Logger)(handler)
	return handler
}
