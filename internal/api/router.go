// Package api exposes the worker's ops HTTP surface: a liveness/readiness
// probe and the Prometheus metrics endpoint. There is no request-serving
// product API here; all real work arrives through the task queue.
package api

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the ops router over the given database handle.
func NewRouter(db *sql.DB, logger *slog.Logger) chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.Recoverer)

	router.Get("/healthz", healthHandler(db, logger))
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return router
}

// healthHandler reports readiness: healthy only when the database answers a
// ping within a short deadline.
func healthHandler(db *sql.DB, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			logger.Error("health check failed", "error", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
