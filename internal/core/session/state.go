package session

import (
	"context"
	"time"

	"github.com/yndnr/kvsession/internal/storage"
)

// State is the session resolved for one request. It is immutable; the
// operations on Manager report their effects through return values and
// the response cookie, never by changing the State of the current
// request.
//
// All methods are safe on a nil *State, which behaves as an inactive
// session.
type State struct {
	name   string
	ttl    time.Duration
	host   string
	id     string
	value  []byte
	status bool
}

// Name returns the cookie name.
func (s *State) Name() string {
	if s == nil {
		return ""
	}
	return s.name
}

// TTL returns the lifetime renewals and regenerations will apply.
func (s *State) TTL() time.Duration {
	if s == nil {
		return 0
	}
	return s.ttl
}

// Host returns the request host the session is scoped to.
func (s *State) Host() string {
	if s == nil {
		return ""
	}
	return s.host
}

// ID returns the identifier read from the cookie. It may be set on an
// inactive session whose record expired.
func (s *State) ID() string {
	if s == nil {
		return ""
	}
	return s.id
}

// Value returns a copy of the stored payload, or nil.
func (s *State) Value() []byte {
	if s == nil || s.value == nil {
		return nil
	}
	out := make([]byte, len(s.value))
	copy(out, s.value)
	return out
}

// Status reports whether a live record was found.
func (s *State) Status() bool {
	return s != nil && s.status
}

// Key returns the storage key of the session.
func (s *State) Key() storage.Key {
	return storage.SessionKey(s.Host(), s.ID())
}

// withID returns a copy of s pointing at a new identifier.
func (s *State) withID(id string) *State {
	cp := *s
	cp.id = id
	return &cp
}

type stateKey struct{}

// NewContext returns a context carrying st.
func NewContext(ctx context.Context, st *State) context.Context {
	return context.WithValue(ctx, stateKey{}, st)
}

// FromContext returns the State attached by Manager.Middleware, or nil.
func FromContext(ctx context.Context) *State {
	st, _ := ctx.Value(stateKey{}).(*State)
	return st
}
