package handler

import (
	"net/http"
)

// ConnChecker reports whether a dependency connection is up.
type ConnChecker interface {
	IsConnected() bool
}

// RunChecker reports whether the sync session is running.
type RunChecker interface {
	Running() bool
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	nats    ConnChecker
	session RunChecker
}

// NewHealthHandler creates a new health handler. nats may be nil when
// event mirroring is disabled.
func NewHealthHandler(nats ConnChecker, session RunChecker) *HealthHandler {
	return &HealthHandler{
		nats:    nats,
		session: session,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.session == nil || !h.session.Running() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "session not running",
		})
		return
	}

	if h.nats != nil && !h.nats.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "NATS not connected",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
