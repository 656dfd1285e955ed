// Package config defines the server configuration structure.
package config

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/yndnr/kvsession/internal/core/domain"
	"github.com/yndnr/kvsession/internal/storage"
	"github.com/yndnr/kvsession/internal/telemetry/logger"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := cfg.SessionConfig().Validate(); err != nil {
		return err
	}
	if err := verifyKV(&cfg.KV); err != nil {
		return err
	}
	if err := verifyLog(&cfg.Log); err != nil {
		return err
	}
	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return invalid("metrics.path must start with /")
	}
	return nil
}

func verifyServer(cfg *ServerSection) error {
	if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		return invalid(fmt.Sprintf("server.http.addr %q: %v", cfg.HTTP.Addr, err))
	}
	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		return invalid("server.http.tls_cert_file and tls_key_file must be set together")
	}
	for _, f := range []string{cfg.HTTP.TLSCertFile, cfg.HTTP.TLSKeyFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			return invalid(fmt.Sprintf("tls file %s: %v", f, err))
		}
	}
	if cfg.RateLimit < 0 {
		return invalid("server.rate_limit must not be negative")
	}
	if cfg.ShutdownTimeout <= 0 {
		return invalid("server.shutdown_timeout must be positive")
	}
	return nil
}

func verifyKV(cfg *KVSection) error {
	kind := storage.Kind(cfg.Backend)
	if !kind.Valid() {
		return domain.ErrUnknownBackend.WithDetails(cfg.Backend)
	}

	switch kind {
	case storage.KindRedis:
		if cfg.Redis.Addr == "" {
			return invalid("kv.redis.addr is required")
		}
		if cfg.Redis.DB < 0 {
			return invalid("kv.redis.db must not be negative")
		}
		if ca := cfg.Redis.TLS.CAFile; ca != "" {
			if !cfg.Redis.TLS.Enabled {
				return invalid("kv.redis.tls.ca_file requires kv.redis.tls.enabled")
			}
			if _, err := os.Stat(ca); err != nil {
				return invalid(fmt.Sprintf("kv.redis.tls.ca_file: %v", err))
			}
		}
	case storage.KindBadger:
		if cfg.Badger.Dir == "" {
			return invalid("kv.badger.dir is required")
		}
		if cfg.Badger.GCThreshold <= 0 || cfg.Badger.GCThreshold >= 1 {
			return invalid("kv.badger.gc_threshold must be between 0 and 1")
		}
		if err := os.MkdirAll(cfg.Badger.Dir, 0750); err != nil {
			return invalid("cannot create badger directory: " + err.Error())
		}
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if !logger.ValidLevel(cfg.Level) {
		return invalid("log.level must be debug, info, warn or error")
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
		return nil
	}
	return invalid("log.format must be json or text")
}

func invalid(details string) error {
	return domain.ErrInvalidConfig.WithDetails(details)
}
