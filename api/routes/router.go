package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/verdantmarket/catalog-maintenance/api/controllers"
	"github.com/verdantmarket/catalog-maintenance/api/middleware"
	"github.com/verdantmarket/catalog-maintenance/internal/catalog"
	"github.com/verdantmarket/catalog-maintenance/internal/tasks"
	"github.com/verdantmarket/catalog-maintenance/pkg/auth"
	"github.com/verdantmarket/catalog-maintenance/pkg/config"
	"github.com/verdantmarket/catalog-maintenance/pkg/db"
	"github.com/verdantmarket/catalog-maintenance/pkg/logger"
)

// Deps carries everything the ops API serves.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *db.Client
	Catalog  *catalog.Repository
	Enqueuer tasks.Enqueuer
	Pingers  map[string]controllers.Pinger
}

// NewRouter assembles the maintenance ops API.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/api/public/ping", controllers.PublicPing())

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireScope(auth.ScopeTasksEnqueue, logg))

		r.Get("/ping", controllers.AdminPing())
		r.Route("/v1", func(r chi.Router) {
			r.Post("/tasks/{task}", controllers.TriggerTask(deps.Enqueuer, logg))
			r.Post("/search/reindex", controllers.SearchReindex(deps.DB, deps.Catalog, deps.Enqueuer, logg))
		})
	})

	return r
}
