package handlers

import (
	"context"
	"net/http"
	"time"

	"storytime/internal/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

// HealthHandler reports liveness and, when the database supports it, connectivity
func HealthHandler(database any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := database.(pinger)
		if !ok {
			sendJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := p.Ping(ctx); err != nil {
			logger.Log.WithError(err).Warn("Health check failed")
			sendJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Database: "unreachable"})
			return
		}
		sendJSON(w, http.StatusOK, HealthResponse{Status: "ok", Database: "ok"})
	}
}
