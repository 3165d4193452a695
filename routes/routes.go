package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/model-orchestrator/app"
	"github.com/upb/model-orchestrator/handlers"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	orchestrateHandler := handlers.NewOrchestrateHandler(deps.Orchestrator, deps.Logger)
	catalogHandler := handlers.NewCatalogHandler(deps.Orchestrator, deps.Logger)
	healthHandler := handlers.NewHealthHandler(deps.SQLDB(), deps.Catalog, deps.Logger)

	// Health check endpoints
	r.Get("/healthz", healthHandler.HandleHealth)
	r.Get("/readyz", healthHandler.HandleReadiness)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/orchestrate", orchestrateHandler.HandleOrchestrate)

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/providers", catalogHandler.HandleListProviders)
			r.Get("/providers/capable", catalogHandler.HandleCapableProviders)
		})

		// Usage reads need the database-backed sink
		if deps.UsageRepo != nil {
			usageHandler := handlers.NewUsageHandler(deps.UsageRepo, deps.Logger)
			r.Route("/usage", func(r chi.Router) {
				r.Get("/records", usageHandler.HandleListRecords)
				r.Get("/records/{id}", usageHandler.HandleGetRecord)
				r.Get("/costs", usageHandler.HandleCostSummary)
			})
		}
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
