package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/wareline/wareline/internal/auth"
	"github.com/wareline/wareline/internal/catalog/categories"
	"github.com/wareline/wareline/internal/catalog/locations"
	"github.com/wareline/wareline/internal/catalog/products"
	"github.com/wareline/wareline/internal/catalog/warehouses"
	"github.com/wareline/wareline/internal/observability"
	"github.com/wareline/wareline/internal/operations"
	"github.com/wareline/wareline/internal/stock"
	"github.com/wareline/wareline/internal/users"
	"github.com/wareline/wareline/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	AuthHandler       *auth.Handler
	ProductHandler    *products.Handler
	CategoryHandler   *categories.Handler
	WarehouseHandler  *warehouses.Handler
	LocationHandler   *locations.Handler
	StockHandler      *stock.Handler
	OperationsHandler *operations.Handler
	UserHandler       *users.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with Wareline defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", params.AuthHandler.MountRoutes)

		// Everything below requires a valid bearer token.
		api.Group(func(private chi.Router) {
			private.Use(params.AuthHandler.Authenticate)

			private.Route("/products", params.ProductHandler.MountRoutes)
			private.Route("/categories", params.CategoryHandler.MountRoutes)
			private.Route("/warehouses", params.WarehouseHandler.MountRoutes)
			private.Route("/locations", params.LocationHandler.MountRoutes)

			// Stock routes span the /products and /operations prefixes, so
			// the handler mounts directly under /api.
			params.StockHandler.MountRoutes(private)

			private.Route("/operations", params.OperationsHandler.MountRoutes)
			private.Route("/users", params.UserHandler.MountRoutes)
		})
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
