package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/kvsession/internal/core/session"
	"github.com/yndnr/kvsession/internal/storage"
)

// maxUserLength bounds the form value stored as session payload.
const maxUserLength = 256

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	st := session.FromContext(r.Context())

	view := pageView{
		Backend: string(h.store.Kind()),
		TTL:     st.TTL(),
	}
	if st.Status() {
		view.User = string(st.Value())
	}

	if lister, ok := storage.FromContext(r.Context()).(storage.Lister); ok {
		now := h.now()
		err := lister.Scan(r.Context(), st.Host(), func(e storage.Entry) bool {
			view.Entries = append(view.Entries, entryView{
				Key:       e.Key.String(),
				Value:     string(e.Value),
				ExpiresAt: formatExpiry(e.ExpiresAt),
				Remaining: int64(e.TTL(now) / time.Second),
			})
			return true
		})
		if err != nil {
			h.logger.Warn("cannot list kv entries", "error", err)
			view.ListError = err.Error()
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, view); err != nil {
		h.logger.Error("failed to render page", "error", err)
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 4096)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	user := r.PostForm.Get("user")
	if len(user) > maxUserLength {
		user = user[:maxUserLength]
	}
	if _, err := h.manager.Create(w, r, []byte(user)); err != nil {
		h.fail(w, r, session.OpCreate, err)
		return
	}
	back(w, r)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.manager.Delete(w, r); err != nil {
		h.fail(w, r, session.OpDelete, err)
		return
	}
	back(w, r)
}

func (h *Handler) handleRenew(w http.ResponseWriter, r *http.Request) {
	if _, err := h.manager.Renew(w, r); err != nil {
		h.fail(w, r, session.OpRenew, err)
		return
	}
	back(w, r)
}

func (h *Handler) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	if _, err := h.manager.Regenerate(w, r); err != nil {
		h.fail(w, r, session.OpRegenerate, err)
		return
	}
	back(w, r)
}

// meResponse is the body of GET /me.
type meResponse struct {
	User       string `json:"user"`
	Host       string `json:"host"`
	TTLSeconds int64  `json:"ttl_seconds"`
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	st := session.FromContext(r.Context())
	h.writeJSON(w, http.StatusOK, meResponse{
		User:       string(st.Value()),
		Host:       st.Host(),
		TTLSeconds: int64(st.TTL() / time.Second),
	})
}

func formatExpiry(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.UTC().Format(time.RFC3339)
}
