// Package storetest holds the behavioural contract every storage.Store
// implementation must satisfy.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/kvsession/internal/core/domain"
	"github.com/yndnr/kvsession/internal/storage"
)

// RunStoreContract verifies store against the storage.Store contract.
// The store must be empty and must not be closed afterwards by the caller
// before the suite finishes; the final subtest closes it.
func RunStoreContract(t *testing.T, store storage.Store) {
	t.Helper()
	ctx := context.Background()
	host := "contract.example"

	t.Run("Set and Get", func(t *testing.T) {
		key := storage.SessionKey(host, "alpha")
		require.NoError(t, store.Set(ctx, key, []byte("alice"), time.Minute))

		got, found, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []byte("alice"), got)
	})

	t.Run("Get missing", func(t *testing.T) {
		got, found, err := store.Get(ctx, storage.SessionKey(host, "missing"))
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, got)
	})

	t.Run("Set overwrites", func(t *testing.T) {
		key := storage.SessionKey(host, "overwrite")
		require.NoError(t, store.Set(ctx, key, []byte("v1"), time.Minute))
		require.NoError(t, store.Set(ctx, key, []byte("v2"), time.Minute))

		got, found, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []byte("v2"), got)
	})

	t.Run("Hosts are isolated", func(t *testing.T) {
		a := storage.SessionKey("a.example", "shared-id")
		b := storage.SessionKey("b.example", "shared-id")
		require.NoError(t, store.Set(ctx, a, []byte("from-a"), time.Minute))

		_, found, err := store.Get(ctx, b)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Delete", func(t *testing.T) {
		key := storage.SessionKey(host, "to-delete")
		require.NoError(t, store.Set(ctx, key, []byte("bye"), time.Minute))
		require.NoError(t, store.Delete(ctx, key))

		_, found, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Delete missing", func(t *testing.T) {
		assert.NoError(t, store.Delete(ctx, storage.SessionKey(host, "never-set")))
	})

	t.Run("Invalid key", func(t *testing.T) {
		err := store.Set(ctx, storage.SessionKey(host, ""), []byte("x"), time.Minute)
		assert.ErrorIs(t, err, domain.ErrInvalidKey)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, store.Ping(ctx))
	})

	if lister, ok := store.(storage.Lister); ok {
		t.Run("Scan", func(t *testing.T) {
			scanHost := "scan.example"
			require.NoError(t, store.Set(ctx, storage.SessionKey(scanHost, "id-1"), []byte("one"), time.Hour))
			require.NoError(t, store.Set(ctx, storage.SessionKey(scanHost, "id-2"), []byte("two"), time.Hour))

			seen := map[string]string{}
			err := lister.Scan(ctx, scanHost, func(e storage.Entry) bool {
				assert.Equal(t, scanHost, e.Key.Host)
				assert.False(t, e.ExpiresAt.IsZero(), "entry should carry its expiry")
				seen[e.Key.ID] = string(e.Value)
				return true
			})
			require.NoError(t, err)
			assert.Equal(t, map[string]string{"id-1": "one", "id-2": "two"}, seen)

			count := 0
			err = lister.Scan(ctx, scanHost, func(storage.Entry) bool {
				count++
				return false
			})
			require.NoError(t, err)
			assert.Equal(t, 1, count, "scan should stop when fn returns false")
		})
	}

	t.Run("Closed", func(t *testing.T) {
		require.NoError(t, store.Close())
		assert.True(t, storage.IsClosed(store))
		_, _, err := store.Get(ctx, storage.SessionKey(host, "alpha"))
		assert.Error(t, err)
	})
}
