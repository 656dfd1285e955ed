package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/yndnr/kvsession/internal/core/session"
	"github.com/yndnr/kvsession/internal/storage"
)

// Handler serves the demo application.
type Handler struct {
	manager *session.Manager
	store   storage.Store
	logger  *slog.Logger
	now     func() time.Time
	mux     *http.ServeMux
}

// Option configures a Handler.
type Option func(*Handler)

// WithClock overrides the clock used to render expirations.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		h.now = now
	}
}

// New creates the demo handler. store backs the health check.
func New(manager *session.Manager, store storage.Store, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		manager: manager,
		store:   store,
		logger:  logger,
		now:     time.Now,
		mux:     http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /{$}", h.handleIndex)
	h.mux.HandleFunc("POST /{$}", h.handleLogin)
	h.mux.HandleFunc("POST /delete", h.handleDelete)
	h.mux.HandleFunc("POST /renew", h.handleRenew)
	h.mux.HandleFunc("POST /regen", h.handleRegenerate)
	h.mux.Handle("GET /me", h.manager.DenyAccess()(http.HandlerFunc(h.handleMe)))
}

// writeJSON writes data as a JSON response.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// fail reports an engine error to the client.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.Error("session operation failed", "op", op, "error", err, "path", r.URL.Path)
	session.WriteError(w, r, err)
}

// back redirects to the index page after a form post.
func back(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusFound)
}
