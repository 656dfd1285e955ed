package storage

import (
	"context"
	"time"

	"github.com/yndnr/kvsession/internal/core/domain"
)

// Observer receives the outcome of every adapter call.
type Observer interface {
	ObserveKV(backend, op string, elapsed time.Duration, err error)
}

// Instrument wraps store so each operation is reported to obs.
// The wrapper keeps the Lister capability: Scan on a store that
// cannot enumerate returns ErrListUnsupported.
func Instrument(store Store, obs Observer) Store {
	if obs == nil {
		return store
	}
	return &instrumented{Store: store, obs: obs}
}

// ErrListUnsupported is returned by Scan on stores without Lister.
var ErrListUnsupported = domain.NewDomainError("KS-KV-5010", "backend cannot enumerate records")

type instrumented struct {
	Store
	obs Observer
}

func (s *instrumented) observe(op string, start time.Time, err error) {
	s.obs.ObserveKV(string(s.Store.Kind()), op, time.Since(start), err)
}

func (s *instrumented) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	start := time.Now()
	v, ok, err := s.Store.Get(ctx, key)
	s.observe("get", start, err)
	return v, ok, err
}

func (s *instrumented) Set(ctx context.Context, key Key, value []byte, ttl time.Duration) error {
	start := time.Now()
	err := s.Store.Set(ctx, key, value, ttl)
	s.observe("set", start, err)
	return err
}

func (s *instrumented) Delete(ctx context.Context, key Key) error {
	start := time.Now()
	err := s.Store.Delete(ctx, key)
	s.observe("delete", start, err)
	return err
}

func (s *instrumented) Scan(ctx context.Context, host string, fn func(Entry) bool) error {
	l, ok := s.Store.(Lister)
	if !ok {
		return ErrListUnsupported
	}
	start := time.Now()
	err := l.Scan(ctx, host, fn)
	s.observe("scan", start, err)
	return err
}

func (s *instrumented) IsClosed() bool {
	return IsClosed(s.Store)
}

// Unwrap returns the wrapped store.
func (s *instrumented) Unwrap() Store {
	return s.Store
}
