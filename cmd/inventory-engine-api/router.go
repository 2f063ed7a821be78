// Package main provides the API router setup.
package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spherical-ai/spherical/libs/inventory-engine/cmd/inventory-engine-api/handlers"
	"github.com/spherical-ai/spherical/libs/inventory-engine/cmd/inventory-engine-api/middleware"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/app"
)

// NewRouter creates the main API router with all routes configured.
func NewRouter(a *app.App) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestContext)
	r.Use(middleware.RequestLogger(a.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(chimiddleware.Timeout(a.Config.Server.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"inventory-engine"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		failures := a.Ready(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if len(failures) > 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": "not_ready", "failures": failures})
			return
		}
		w.Write([]byte(`{"status":"ready"}`))
	})

	if a.Config.Observability.MetricsEnabled {
		r.Handle("/metrics", promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}))
	}

	queryHandler := handlers.NewQueryHandler(a.Logger, a.Router, a.Batch)
	catalogHandler := handlers.NewCatalogHandler(a.Logger, a.Store, a.Fallback, a)
	historyHandler := handlers.NewHistoryHandler(a.Logger, a.QueryLog)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/query", func(r chi.Router) {
			r.Post("/", queryHandler.Query)
			r.Post("/batch", queryHandler.Batch)
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/stats", catalogHandler.Stats)
			r.Post("/reload", catalogHandler.Reload)
		})

		r.Route("/qa", func(r chi.Router) {
			r.Get("/", catalogHandler.ListQA)
			r.Post("/reload", catalogHandler.ReloadQA)
		})

		r.Route("/history", func(r chi.Router) {
			r.Get("/", historyHandler.Recent)
			r.Get("/summary", historyHandler.Summary)
		})
	})

	return r
}
