package handlers

import (
	"net/http"
	"strconv"

	"github.com/livedesk/livedesk/internal/api"
	"github.com/livedesk/livedesk/internal/events"
)

// Broadcaster pushes ticket events to connected stream clients. The hub
// implements it; tests substitute a recorder.
type Broadcaster interface {
	Broadcast(ev events.Event)
}

// HTTPHandler handles plain HTTP endpoints
type HTTPHandler struct{}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler() *HTTPHandler {
	return &HTTPHandler{}
}

// SetupRoutes configures the health endpoint
func (h *HTTPHandler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.handleHealth)
}

// handleHealth returns a simple health check response
func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	api.RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": "1.0.0",
	})
}

// pathID parses a numeric path value. The second result is false when
// the value is missing or not a positive integer; the caller responds
// with 400.
func pathID(r *http.Request, name string) (uint, bool) {
	value, err := strconv.ParseUint(r.PathValue(name), 10, 32)
	if err != nil || value == 0 {
		return 0, false
	}
	return uint(value), true
}
