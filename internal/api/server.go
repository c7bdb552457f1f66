/*
Package api exposes the availability engine over HTTP.

ROUTES:
  GET  /health                 Liveness
  GET  /api/holidays           Loaded national calendar
  POST /api/availabilities     Run the engine on a posted dataset (?mode=)
  GET  /api/runs               Run history, newest first (?limit=)
  GET  /api/runs/{id}          One run with its records

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request, echoed in logs
  2. Logging:    zap request log with status and duration
  3. Recovery:   Panic becomes a JSON 500
  4. CORS:       Cross-origin requests for a frontend
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, logger *zap.Logger, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggingMiddleware(logger))
	r.Use(RecoveryMiddleware(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/holidays", h.ListHolidays)
		r.Post("/availabilities", h.ComputeAvailabilities)

		r.Route("/runs", func(r chi.Router) {
			r.Get("/", h.ListRuns)
			r.Get("/{id}", h.GetRun)
		})
	})

	return r
}
