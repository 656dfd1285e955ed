package document

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/kvsession/internal/core/domain"
	"github.com/yndnr/kvsession/internal/storage"
)

// DefaultSweepInterval is how often expired records are purged.
const DefaultSweepInterval = time.Minute

// Store adapts a DB to storage.Store with tuple keys.
type Store struct {
	db            *DB
	sweepInterval time.Duration
	now           func() time.Time

	closed    atomic.Bool
	closeOnce sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// Option configures the Store.
type Option func(*Store)

// WithSweepInterval sets the pause between expiry sweeps; zero disables
// the sweeper.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Store) { s.sweepInterval = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a Store over a fresh DB.
func New(opts ...Option) *Store {
	s := &Store{
		sweepInterval: DefaultSweepInterval,
		now:           time.Now,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.db = NewDB(s.now)

	if s.sweepInterval > 0 {
		go s.sweepLoop()
	} else {
		close(s.doneCh)
	}
	return s
}

// DB exposes the underlying database.
func (s *Store) DB() *DB { return s.db }

// Kind implements storage.Store.
func (s *Store) Kind() storage.Kind { return storage.KindDocument }

// KeyStyle implements storage.Store.
func (s *Store) KeyStyle() storage.KeyStyle { return storage.KeyStyleTuple }

// IsClosed reports whether Close has been called.
func (s *Store) IsClosed() bool { return s.closed.Load() }

// Get implements storage.Store.
func (s *Store) Get(_ context.Context, key storage.Key) ([]byte, bool, error) {
	if s.closed.Load() {
		return nil, false, domain.ErrStoreClosed
	}
	if err := key.Validate(); err != nil {
		return nil, false, err
	}
	rec, ok := s.db.Get(key.Tuple())
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), rec.Value...), true, nil
}

// Set implements storage.Store. ttl is converted to milliseconds.
func (s *Store) Set(_ context.Context, key storage.Key, value []byte, ttl time.Duration) error {
	if s.closed.Load() {
		return domain.ErrStoreClosed
	}
	if err := key.Validate(); err != nil {
		return err
	}
	s.db.Set(key.Tuple(), value, ttl.Milliseconds())
	return nil
}

// Delete implements storage.Store.
func (s *Store) Delete(_ context.Context, key storage.Key) error {
	if s.closed.Load() {
		return domain.ErrStoreClosed
	}
	if err := key.Validate(); err != nil {
		return err
	}
	s.db.Delete(key.Tuple())
	return nil
}

// Scan implements storage.Lister as a range scan over
// ["session", host].
func (s *Store) Scan(ctx context.Context, host string, fn func(storage.Entry) bool) error {
	if s.closed.Load() {
		return domain.ErrStoreClosed
	}

	prefix := TupleKey{storage.SessionNamespace}
	if host != "" {
		prefix = append(prefix, host)
	}

	var entries []storage.Entry
	s.db.List(prefix, func(rec Record) bool {
		if len(rec.Key) != 3 {
			return true
		}
		e := storage.Entry{
			Key:   storage.Key{Namespace: rec.Key[0], Host: rec.Key[1], ID: rec.Key[2]},
			Value: append([]byte(nil), rec.Value...),
		}
		if rec.ExpireAt != 0 {
			e.ExpiresAt = time.UnixMilli(rec.ExpireAt)
		}
		entries = append(entries, e)
		return true
	})

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !fn(e) {
			break
		}
	}
	return nil
}

// Ping implements storage.Store.
func (s *Store) Ping(_ context.Context) error {
	if s.closed.Load() {
		return domain.ErrStoreClosed
	}
	return nil
}

// Close stops the sweeper and drops all records.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.stopCh)
		<-s.doneCh
		s.db.Clear()
	})
	return nil
}

func (s *Store) sweepLoop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.db.Sweep()
		case <-s.stopCh:
			return
		}
	}
}
