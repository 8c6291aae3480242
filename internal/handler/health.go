// Package handler contains the HTTP handlers of the API.
//
// HANDLER RESPONSIBILITIES:
// 1. Parse the incoming request (path values, query string, JSON body)
// 2. Call the service layer with the authenticated caller, if any
// 3. Write the response through writeJSON / WriteError
//
// Handlers hold no business rules: validation, ownership and status checks
// live in internal/service, and the HTTP status of every error is decided
// in one place (response.go).
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// LivenessText is the body of GET /.
const LivenessText = "Scholar-Stream Server is Running"

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness routes.
type HealthHandler struct {
	store  Pinger
	logger *slog.Logger
}

func NewHealthHandler(store Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: logger}
}

// HTTP: GET /
func (h *HealthHandler) HandleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(LivenessText))
}

type healthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}

// HandleHealth pings the store with a short deadline.
//
// HTTP: GET /healthz
// 200 {"status":"ok","store":"up"} or 503 {"status":"degraded","store":"down"}
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("store ping failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Store: "down"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Store: "up"})
}
