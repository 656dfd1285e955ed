package handler

import (
	"context"
	"net/http"
	"time"
)

// HandleHealth handles GET /health. It pings the backend and answers 503
// when the ping fails.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	body := map[string]string{
		"status":  "healthy",
		"backend": string(h.store.Kind()),
		"time":    h.now().UTC().Format(time.RFC3339),
	}

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", "error", err)
		body["status"] = "unhealthy"
		body["error"] = err.Error()
		h.writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	h.writeJSON(w, http.StatusOK, body)
}
