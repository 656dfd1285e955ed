// Package backends builds the storage.Store named by configuration.
package backends

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/kvsession/internal/core/domain"
	"github.com/yndnr/kvsession/internal/infra/tlsroots"
	"github.com/yndnr/kvsession/internal/storage"
	"github.com/yndnr/kvsession/internal/storage/document"
	"github.com/yndnr/kvsession/internal/storage/memory"
	"github.com/yndnr/kvsession/internal/storage/redis"
)

// Config selects and configures one backend.
type Config struct {
	Backend storage.Kind

	Redis  redis.Config
	Badger storage.BadgerConfig

	// RedisTLS dials Redis over TLS, trusting RedisCAFile on top of the
	// system roots.
	RedisTLS        bool
	RedisCAFile     string
	RedisServerName string

	MemorySweepInterval   time.Duration
	DocumentSweepInterval time.Duration

	// Observer, when set, receives timings for every KV call.
	Observer storage.Observer

	// Metrics, when set, receives backend-specific collectors.
	Metrics prometheus.Registerer
}

// Open constructs the configured store and pings it. Any failure is a
// setup error; the caller should not start serving.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (storage.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var store storage.Store
	switch cfg.Backend {
	case storage.KindMemory:
		store = memory.New(memory.WithSweepInterval(cfg.MemorySweepInterval))
	case storage.KindDocument:
		store = document.New(document.WithSweepInterval(cfg.DocumentSweepInterval))
	case storage.KindRedis:
		rcfg := cfg.Redis
		if cfg.RedisTLS {
			tlsCfg, err := tlsroots.ClientConfig(cfg.RedisCAFile, cfg.RedisServerName)
			if err != nil {
				return nil, err
			}
			rcfg.TLSConfig = tlsCfg
		}
		store = redis.New(rcfg)
	case storage.KindBadger:
		bs, err := storage.NewBadgerStore(cfg.Badger, logger.With("component", "badger"))
		if err != nil {
			return nil, err
		}
		if cfg.Metrics != nil {
			bs.RegisterMetrics(cfg.Metrics)
		}
		store = bs
	default:
		return nil, domain.ErrUnknownBackend.WithDetails(string(cfg.Backend))
	}

	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	logger.Info("kv backend ready",
		"backend", string(store.Kind()),
		"key_style", store.KeyStyle().String())

	return storage.Instrument(store, cfg.Observer), nil
}
