package session

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/yndnr/kvsession/internal/core/domain"
)

// DenyResponse is the default body sent by DenyAccess.
type DenyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

// Response types accepted by DenyType.
const (
	DenyJSON = "json"
	DenyText = "text"
)

type denyOptions struct {
	kind   string
	status int
	body   any
}

// DenyOption customises DenyAccess.
type DenyOption func(*denyOptions)

// DenyType selects the response encoding, DenyJSON or DenyText.
func DenyType(kind string) DenyOption {
	return func(o *denyOptions) { o.kind = kind }
}

// DenyStatus sets the HTTP status code.
func DenyStatus(status int) DenyOption {
	return func(o *denyOptions) { o.status = status }
}

// DenyBody sets the response body. JSON responses encode it; text
// responses print it with fmt.
func DenyBody(body any) DenyOption {
	return func(o *denyOptions) { o.body = body }
}

// DenyAccess returns middleware that answers requests without an active
// session and passes the rest through. The default response is 401 with
// {"status":false,"message":"Invalid session"}.
func DenyAccess(opts ...DenyOption) func(http.Handler) http.Handler {
	o := denyOptions{
		kind:   DenyJSON,
		status: http.StatusUnauthorized,
		body:   DenyResponse{Status: false, Message: domain.ErrInvalidSession.Message},
	}
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if FromContext(r.Context()).Status() {
				next.ServeHTTP(w, r)
				return
			}
			o.write(w)
		})
	}
}

func (o denyOptions) write(w http.ResponseWriter) {
	if o.kind == DenyText {
		body := o.body
		if resp, ok := body.(DenyResponse); ok {
			body = resp.Message
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(o.status)
		fmt.Fprint(w, body)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(o.status)
	json.NewEncoder(w).Encode(o.body)
}

// DenyAccess is a convenience wrapper for the package-level DenyAccess.
func (m *Manager) DenyAccess(opts ...DenyOption) func(http.Handler) http.Handler {
	return DenyAccess(opts...)
}
