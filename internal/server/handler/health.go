package handler

import (
	"log/slog"
	"net/http"
	"time"
)

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	logger  *slog.Logger
	backend string
	started time.Time
}

// NewHealthHandler reports the configured storage backend alongside uptime.
func NewHealthHandler(logger *slog.Logger, backend string) *HealthHandler {
	return &HealthHandler{logger: logger, backend: backend, started: time.Now()}
}

// HealthCheck responds with a simple JSON status indicating the server is alive.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"storage":        h.backend,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}
