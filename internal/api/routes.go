package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/courier-webhooks/internal/courier"
	"github.com/ignite/courier-webhooks/internal/service/reconcile"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Router WebhookRouter
	DB     *sql.DB
	Redis  *redis.Client
}

// SetupRoutes configures all routes.
func SetupRoutes(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Couriers call from their own infrastructure; no cookies are involved.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{
			"Content-Type",
			courier.HeaderCourier,
			courier.HeaderPostNordSignature,
			courier.HeaderBringSignature,
			courier.HeaderBringTimestamp,
			courier.HeaderBudbeeSignature,
			courier.HeaderAuthorization,
			"User-Agent",
		},
		MaxAge: 300,
	}))

	health := NewHealthChecker(deps.DB, deps.Redis)
	r.Get("/health", health.HandleHealth)
	r.Get("/health/live", health.HandleLiveness)
	r.Get("/health/ready", health.HandleReadiness)
	r.Handle("/metrics", promhttp.Handler())

	r.HandleFunc(reconcile.Endpoint, NewWebhookHandler(deps.Router).ServeHTTP)

	return r
}
