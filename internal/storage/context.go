package storage

import (
	"context"
	"net/http"

	"github.com/yndnr/kvsession/internal/core/domain"
)

type storeKey struct{}

// WithStore returns a context carrying store.
func WithStore(ctx context.Context, store Store) context.Context {
	return context.WithValue(ctx, storeKey{}, store)
}

// FromContext returns the store attached by WithStore, or nil.
func FromContext(ctx context.Context) Store {
	store, _ := ctx.Value(storeKey{}).(Store)
	return store
}

// Middleware attaches store to every request context.
//
// Requests are answered with 500 while store is nil or closed and never
// reach next.
func Middleware(store Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsClosed(store) {
				w.Header().Set("X-Error-Code", domain.ErrStoreNotAttached.Code)
				http.Error(w, domain.ErrStoreNotAttached.Message, http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithStore(r.Context(), store)))
		})
	}
}
