// Package config defines the server configuration structure.
package config

import (
	"time"

	"github.com/yndnr/kvsession/internal/core/session"
)

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:5080"
	DefaultShutdownTimeout = 15 * time.Second

	DefaultBackend          = "memory"
	DefaultRedisAddr        = "127.0.0.1:6379"
	DefaultRedisDialTimeout = 5 * time.Second
	DefaultBadgerDir        = "/var/lib/kvsession/badger"
	DefaultBadgerGCInterval = 10 * time.Minute
	DefaultBadgerGCRatio    = 0.5
	DefaultSweepInterval    = time.Minute

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsPath = "/metrics"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	sess := session.DefaultConfig()
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr: DefaultHTTPAddr,
			},
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Session: SessionSection{
			Name:       sess.Name,
			TTL:        sess.TTL,
			Renew:      sess.Renew,
			Regenerate: sess.Regenerate,
			IDFormat:   sess.IDFormat,
		},
		KV: KVSection{
			Backend: DefaultBackend,
			Redis: RedisConfig{
				Addr:        DefaultRedisAddr,
				DialTimeout: DefaultRedisDialTimeout,
			},
			Badger: BadgerConfig{
				Dir:         DefaultBadgerDir,
				GCInterval:  DefaultBadgerGCInterval,
				GCThreshold: DefaultBadgerGCRatio,
			},
			Memory:   SweepConfig{SweepInterval: DefaultSweepInterval},
			Document: SweepConfig{SweepInterval: DefaultSweepInterval},
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Metrics: MetricsSection{
			Enabled: true,
			Path:    DefaultMetricsPath,
		},
	}
}
