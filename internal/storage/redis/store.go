// Package redis implements the session backend on Redis.
//
// Keys are flat "session:host:id" strings and TTLs map directly to Redis
// key expiry, so Redis itself evicts expired sessions.
package redis

import (
	"context"
	"crypto/tls"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/yndnr/kvsession/internal/core/domain"
	"github.com/yndnr/kvsession/internal/storage"
)

// Config holds connection settings for New.
type Config struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration

	// TLSConfig, when set, dials Redis over TLS.
	TLSConfig *tls.Config
}

// Store implements storage.Store using Redis.
type Store struct {
	client    backend.UniversalClient
	ownClient bool
	scanCount int64

	closed    atomic.Bool
	closeOnce sync.Once
}

// Option configures the Store.
type Option func(*Store)

// WithScanCount sets the COUNT hint used by Scan.
func WithScanCount(n int64) Option {
	return func(s *Store) {
		if n > 0 {
			s.scanCount = n
		}
	}
}

// New dials Redis with cfg. The returned store owns the client and
// closes it on Close.
func New(cfg Config, opts ...Option) *Store {
	client := backend.NewClient(&backend.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
		TLSConfig:   cfg.TLSConfig,
	})
	s := NewFromClient(client, opts...)
	s.ownClient = true
	return s
}

// NewFromClient wraps an existing client. Close leaves the client open.
func NewFromClient(client backend.UniversalClient, opts ...Option) *Store {
	s := &Store{
		client:    client,
		scanCount: 100,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Kind implements storage.Store.
func (s *Store) Kind() storage.Kind { return storage.KindRedis }

// KeyStyle implements storage.Store.
func (s *Store) KeyStyle() storage.KeyStyle { return storage.KeyStyleFlat }

// IsClosed reports whether Close has been called.
func (s *Store) IsClosed() bool { return s.closed.Load() }

// Get implements storage.Store.
func (s *Store) Get(ctx context.Context, key storage.Key) ([]byte, bool, error) {
	if s.closed.Load() {
		return nil, false, domain.ErrStoreClosed
	}
	if err := key.Validate(); err != nil {
		return nil, false, err
	}

	val, err := s.client.Get(ctx, key.Flat()).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, false, nil
		}
		return nil, false, domain.ErrStoreUnavailable.WithCause(err)
	}
	return val, true, nil
}

// Set implements storage.Store. Redis expiry has millisecond precision;
// go-redis picks EX or PX from ttl.
func (s *Store) Set(ctx context.Context, key storage.Key, value []byte, ttl time.Duration) error {
	if s.closed.Load() {
		return domain.ErrStoreClosed
	}
	if err := key.Validate(); err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, key.Flat(), value, ttl).Err(); err != nil {
		return domain.ErrStoreUnavailable.WithCause(err)
	}
	return nil
}

// Delete implements storage.Store.
func (s *Store) Delete(ctx context.Context, key storage.Key) error {
	if s.closed.Load() {
		return domain.ErrStoreClosed
	}
	if err := key.Validate(); err != nil {
		return err
	}
	if err := s.client.Del(ctx, key.Flat()).Err(); err != nil {
		return domain.ErrStoreUnavailable.WithCause(err)
	}
	return nil
}

// Scan implements storage.Lister using SCAN, so it does not block the
// server. Order follows Redis cursor order.
func (s *Store) Scan(ctx context.Context, host string, fn func(storage.Entry) bool) error {
	if s.closed.Load() {
		return domain.ErrStoreClosed
	}

	pattern := escapeGlob(storage.HostPrefix(host)) + "*"
	iter := s.client.Scan(ctx, 0, pattern, s.scanCount).Iterator()
	for iter.Next(ctx) {
		flat := iter.Val()
		key, err := storage.ParseFlatKey(flat)
		if err != nil {
			continue
		}

		pipe := s.client.Pipeline()
		getCmd := pipe.Get(ctx, flat)
		ttlCmd := pipe.PTTL(ctx, flat)
		if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, backend.Nil) {
			return domain.ErrStoreUnavailable.WithCause(err)
		}

		value, err := getCmd.Bytes()
		if errors.Is(err, backend.Nil) {
			// Expired or deleted between SCAN and GET.
			continue
		}
		if err != nil {
			return domain.ErrStoreUnavailable.WithCause(err)
		}

		entry := storage.Entry{Key: key, Value: value}
		if ttl := ttlCmd.Val(); ttl > 0 {
			entry.ExpiresAt = time.Now().Add(ttl)
		}
		if !fn(entry) {
			return nil
		}
	}
	if err := iter.Err(); err != nil {
		return domain.ErrStoreUnavailable.WithCause(err)
	}
	return nil
}

// Ping implements storage.Store.
func (s *Store) Ping(ctx context.Context) error {
	if s.closed.Load() {
		return domain.ErrStoreClosed
	}
	if err := s.client.Ping(ctx).Err(); err != nil {
		return domain.ErrStoreUnavailable.WithDetails("redis ping").WithCause(err)
	}
	return nil
}

// Close implements storage.Store.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		if s.ownClient {
			err = s.client.Close()
		}
	})
	return err
}

var globReplacer = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// escapeGlob quotes the characters SCAN MATCH treats as wildcards.
func escapeGlob(s string) string {
	return globReplacer.Replace(s)
}
