package storage

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/hkdf"

	"github.com/yndnr/kvsession/internal/core/domain"
)

// BadgerConfig configures a BadgerStore.
type BadgerConfig struct {
	// Dir is the data directory. Required unless InMemory is set.
	Dir string

	// InMemory keeps all data in memory. Used by tests and the CLI's
	// dry runs.
	InMemory bool

	// GCInterval is the pause between value log GC runs.
	// Default: 10m
	GCInterval time.Duration

	// GCThreshold is the discard ratio passed to RunValueLogGC (0.0-1.0).
	// Default: 0.5
	GCThreshold float64

	// EncryptionKey is a passphrase; when set, data is encrypted at rest
	// with an AES-256 key derived from it.
	EncryptionKey string

	// SyncWrites fsyncs after every write.
	SyncWrites bool
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig(dir string) BadgerConfig {
	return BadgerConfig{
		Dir:         dir,
		GCInterval:  10 * time.Minute,
		GCThreshold: 0.5,
	}
}

const badgerKeyInfo = "kvsession badger encryption v1"

// DeriveEncryptionKey stretches passphrase into an AES-256 key with
// HKDF-SHA256.
func DeriveEncryptionKey(passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, domain.ErrInvalidConfig.WithDetails("encryption key is empty")
	}
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(passphrase), nil, []byte(badgerKeyInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}

// BadgerStore is a Store backed by an embedded Badger database.
// Records carry Badger's native TTL, so expired sessions disappear from
// reads immediately and from disk on compaction.
type BadgerStore struct {
	db     *badger.DB
	cfg    BadgerConfig
	logger *slog.Logger

	closed    atomic.Bool
	closeOnce sync.Once

	lastGCTime atomic.Int64 // Unix milliseconds

	metricsLSMSize      prometheus.Gauge
	metricsValueLogSize prometheus.Gauge
	metricsGCRuns       prometheus.Counter

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewBadgerStore opens a Badger database and starts its GC loop.
func NewBadgerStore(cfg BadgerConfig, logger *slog.Logger) (*BadgerStore, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, domain.ErrInvalidConfig.WithDetails("badger: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.GCInterval <= 0 {
		cfg.GCInterval = 10 * time.Minute
	}
	if cfg.GCThreshold <= 0 || cfg.GCThreshold >= 1 {
		cfg.GCThreshold = 0.5
	}

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: logger}
	opts.SyncWrites = cfg.SyncWrites

	if cfg.EncryptionKey != "" {
		key, err := DeriveEncryptionKey(cfg.EncryptionKey)
		if err != nil {
			return nil, err
		}
		// Badger refuses encryption without an index cache.
		opts = opts.WithEncryptionKey(key).WithIndexCacheSize(16 << 20)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, domain.ErrStoreUnavailable.WithDetails("badger: open db").WithCause(err)
	}

	s := &BadgerStore{
		db:     db,
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	go s.gcLoop()

	logger.Info("badger store started",
		"dir", cfg.Dir,
		"in_memory", cfg.InMemory,
		"encrypted", cfg.EncryptionKey != "",
		"gc_interval", cfg.GCInterval)

	return s, nil
}

// Kind implements Store.
func (s *BadgerStore) Kind() Kind { return KindBadger }

// KeyStyle implements Store.
func (s *BadgerStore) KeyStyle() KeyStyle { return KeyStyleFlat }

// IsClosed reports whether Close has been called.
func (s *BadgerStore) IsClosed() bool { return s.closed.Load() }

// Get implements Store.
func (s *BadgerStore) Get(_ context.Context, key Key) ([]byte, bool, error) {
	if s.closed.Load() {
		return nil, false, domain.ErrStoreClosed
	}
	if err := key.Validate(); err != nil {
		return nil, false, err
	}

	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key.Flat()))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, domain.ErrStoreUnavailable.WithCause(err)
	}
	return value, true, nil
}

// Set implements Store.
func (s *BadgerStore) Set(_ context.Context, key Key, value []byte, ttl time.Duration) error {
	if s.closed.Load() {
		return domain.ErrStoreClosed
	}
	if err := key.Validate(); err != nil {
		return err
	}

	entry := badger.NewEntry([]byte(key.Flat()), value)
	if ttl > 0 {
		entry = entry.WithTTL(ttl)
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(entry)
	})
	if err != nil {
		return domain.ErrStoreUnavailable.WithCause(err)
	}
	return nil
}

// Delete implements Store.
func (s *BadgerStore) Delete(_ context.Context, key Key) error {
	if s.closed.Load() {
		return domain.ErrStoreClosed
	}
	if err := key.Validate(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key.Flat()))
	})
	if err != nil {
		return domain.ErrStoreUnavailable.WithCause(err)
	}
	return nil
}

// Scan implements Lister. Badger iterates in key order and skips
// expired items.
func (s *BadgerStore) Scan(ctx context.Context, host string, fn func(Entry) bool) error {
	if s.closed.Load() {
		return domain.ErrStoreClosed
	}
	prefix := HostPrefix(host)

	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			key, err := ParseFlatKey(string(item.Key()))
			if err != nil {
				continue
			}
			value, err := item.ValueCopy(nil)
			if err != nil {
				return domain.ErrStoreUnavailable.WithCause(err)
			}
			entry := Entry{Key: key, Value: value}
			if exp := item.ExpiresAt(); exp > 0 {
				entry.ExpiresAt = time.Unix(int64(exp), 0)
			}
			if !fn(entry) {
				return nil
			}
		}
		return nil
	})
}

// Ping implements Store.
func (s *BadgerStore) Ping(_ context.Context) error {
	if s.closed.Load() || s.db.IsClosed() {
		return domain.ErrStoreClosed
	}
	return nil
}

// GC runs value log garbage collection until nothing is rewritten and
// returns the number of rewrite rounds.
func (s *BadgerStore) GC() (int, error) {
	if s.cfg.InMemory {
		return 0, nil
	}
	start := time.Now()
	rounds := 0
	for {
		err := s.db.RunValueLogGC(s.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
				break
			}
			return rounds, fmt.Errorf("gc: %w", err)
		}
		rounds++
	}

	s.lastGCTime.Store(time.Now().UnixMilli())
	if s.metricsGCRuns != nil {
		s.metricsGCRuns.Inc()
	}

	s.logger.Debug("badger gc completed",
		"rounds", rounds,
		"elapsed", time.Since(start))

	return rounds, nil
}

// Close stops the GC loop and closes the database. It is safe to call
// more than once.
func (s *BadgerStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.logger.Info("shutting down badger store")
		s.closed.Store(true)
		close(s.stopCh)
		<-s.doneCh
		if cerr := s.db.Close(); cerr != nil {
			err = fmt.Errorf("close db: %w", cerr)
		}
	})
	return err
}

// RegisterMetrics registers Badger size gauges and a GC counter.
func (s *BadgerStore) RegisterMetrics(registry prometheus.Registerer) *BadgerStore {
	s.metricsLSMSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "kvsession",
		Subsystem: "badger",
		Name:      "lsm_size_bytes",
		Help:      "Badger LSM tree size in bytes",
	})
	s.metricsValueLogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "kvsession",
		Subsystem: "badger",
		Name:      "value_log_size_bytes",
		Help:      "Badger value log size in bytes",
	})
	s.metricsGCRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "kvsession",
		Subsystem: "badger",
		Name:      "gc_runs_total",
		Help:      "Completed Badger value log GC runs",
	})

	registry.MustRegister(s.metricsLSMSize, s.metricsValueLogSize, s.metricsGCRuns)
	s.updateSizeMetrics()
	return s
}

func (s *BadgerStore) updateSizeMetrics() {
	if s.metricsLSMSize == nil || s.closed.Load() {
		return
	}
	lsm, vlog := s.db.Size()
	s.metricsLSMSize.Set(float64(lsm))
	s.metricsValueLogSize.Set(float64(vlog))
}

func (s *BadgerStore) gcLoop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.GC(); err != nil {
				s.logger.Error("auto gc failed", "error", err)
			}
			s.updateSizeMetrics()
		case <-s.stopCh:
			return
		}
	}
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(trimf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(trimf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(trimf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(trimf(format, args...))
}

// trimf drops the trailing newline Badger puts on its messages.
func trimf(format string, args ...interface{}) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}
