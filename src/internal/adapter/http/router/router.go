package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/api-sage/savings-ledger/src/internal/commons"
	"github.com/api-sage/savings-ledger/src/internal/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouteRegistrar interface {
	RegisterRoutes(r chi.Router)
}

// HealthCheck reports whether the backing store is reachable. Nil means always healthy.
type HealthCheck func(ctx context.Context) error

type healthResponse struct {
	Status string `json:"status"`
}

func New(
	authMiddleware func(http.Handler) http.Handler,
	health HealthCheck,
	registrars ...RouteRegistrar,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler(health))
	registerSwaggerRoutes(r)

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}
		for _, registrar := range registrars {
			if registrar != nil {
				registrar.RegisterRoutes(r)
			}
		}
	})

	return r
}

func healthHandler(check HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				logger.Error("health check failed", err, nil)
				w.WriteHeader(http.StatusServiceUnavailable)
				writeBody(w, commons.ErrorResponse[healthResponse]("store unavailable", err.Error()))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		writeBody(w, commons.SuccessResponse("ok", healthResponse{Status: "up"}))
	}
}

func writeBody(w http.ResponseWriter, payload any) {
	_ = json.NewEncoder(w).Encode(payload)
}
