package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/kvsession/internal/core/domain"
	"github.com/yndnr/kvsession/internal/storage"
	"github.com/yndnr/kvsession/pkg/cmap"
)

// DefaultSweepInterval is how often expired records are purged.
const DefaultSweepInterval = time.Minute

type record struct {
	value    []byte
	deadline time.Time // zero means no expiry
}

func (r record) expired(now time.Time) bool {
	return !r.deadline.IsZero() && !now.Before(r.deadline)
}

// Store is an in-memory storage.Store.
type Store struct {
	records *cmap.Map[record]

	sweepInterval time.Duration
	now           func() time.Time

	closed    atomic.Bool
	closeOnce sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// Option configures the Store.
type Option func(*Store)

// WithSweepInterval sets the pause between expiry sweeps. Zero or a
// negative value disables the sweeper; expired records are then only
// dropped when read.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Store) {
		s.sweepInterval = d
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithShards sets the shard count of the underlying map.
func WithShards(n int) Option {
	return func(s *Store) {
		s.records = cmap.NewWithShards[record](n)
	}
}

// New creates a new in-memory store and starts its sweeper.
func New(opts ...Option) *Store {
	s := &Store{
		records:       cmap.New[record](),
		sweepInterval: DefaultSweepInterval,
		now:           time.Now,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.sweepInterval > 0 {
		go s.sweepLoop()
	} else {
		close(s.doneCh)
	}

	return s
}

// Kind implements storage.Store.
func (s *Store) Kind() storage.Kind { return storage.KindMemory }

// KeyStyle implements storage.Store.
func (s *Store) KeyStyle() storage.KeyStyle { return storage.KeyStyleFlat }

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

	flat := key.Flat()
	rec, ok := s.records.Get(flat)
	if !ok {
		return nil, false, nil
	}
	now := s.now()
	if rec.expired(now) {
		s.records.DeleteIf(flat, func(r record) bool { return r.expired(now) })
		return nil, false, nil
	}
	return clone(rec.value), true, nil
}

// Set implements storage.Store.
func (s *Store) Set(_ context.Context, key storage.Key, value []byte, ttl time.Duration) error {
	if s.closed.Load() {
		return domain.ErrStoreClosed
	}
	if err := key.Validate(); err != nil {
		return err
	}

	rec := record{value: clone(value)}
	if ttl > 0 {
		rec.deadline = s.now().Add(ttl)
	}
	s.records.Set(key.Flat(), rec)
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
	s.records.Delete(key.Flat())
	return nil
}

// Scan implements storage.Lister. Entries are visited in key order.
func (s *Store) Scan(ctx context.Context, host string, fn func(storage.Entry) bool) error {
	if s.closed.Load() {
		return domain.ErrStoreClosed
	}

	prefix := storage.HostPrefix(host)
	now := s.now()

	var entries []storage.Entry
	s.records.Range(func(flat string, rec record) bool {
		if !strings.HasPrefix(flat, prefix) || rec.expired(now) {
			return true
		}
		key, err := storage.ParseFlatKey(flat)
		if err != nil {
			return true
		}
		entries = append(entries, storage.Entry{
			Key:       key,
			Value:     clone(rec.value),
			ExpiresAt: rec.deadline,
		})
		return true
	})

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key.Flat() < entries[j].Key.Flat()
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

// Len returns the number of records, including expired ones not yet swept.
func (s *Store) Len() int {
	return s.records.Count()
}

// Sweep removes expired records and returns how many were removed.
func (s *Store) Sweep() int {
	now := s.now()
	var expired []string
	s.records.Range(func(flat string, rec record) bool {
		if rec.expired(now) {
			expired = append(expired, flat)
		}
		return true
	})

	removed := 0
	for _, flat := range expired {
		if s.records.DeleteIf(flat, func(r record) bool { return r.expired(now) }) {
			removed++
		}
	}
	return removed
}

// Close stops the sweeper and drops all records.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.stopCh)
		<-s.doneCh
		s.records.Clear()
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
			s.Sweep()
		case <-s.stopCh:
			return
		}
	}
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
