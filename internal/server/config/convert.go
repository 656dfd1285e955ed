// Package config defines the server configuration structure.
package config

import (
	"github.com/yndnr/kvsession/internal/core/session"
	"github.com/yndnr/kvsession/internal/storage"
	"github.com/yndnr/kvsession/internal/storage/backends"
	"github.com/yndnr/kvsession/internal/storage/redis"
)

// SessionConfig returns the session engine settings.
func (c *ServerConfig) SessionConfig() session.Config {
	return session.Config{
		Name:       c.Session.Name,
		TTL:        c.Session.TTL,
		Secret:     c.Session.Secret,
		Renew:      c.Session.Renew,
		Regenerate: c.Session.Regenerate,
		IDFormat:   c.Session.IDFormat,
	}
}

// BackendConfig returns the settings for backends.Open.
func (c *ServerConfig) BackendConfig() backends.Config {
	return backends.Config{
		Backend: storage.Kind(c.KV.Backend),
		Redis: redis.Config{
			Addr:        c.KV.Redis.Addr,
			Password:    c.KV.Redis.Password,
			DB:          c.KV.Redis.DB,
			DialTimeout: c.KV.Redis.DialTimeout,
		},
		Badger: storage.BadgerConfig{
			Dir:           c.KV.Badger.Dir,
			GCInterval:    c.KV.Badger.GCInterval,
			GCThreshold:   c.KV.Badger.GCThreshold,
			EncryptionKey: c.KV.Badger.EncryptionKey,
			SyncWrites:    c.KV.Badger.SyncWrites,
		},
		RedisTLS:              c.KV.Redis.TLS.Enabled,
		RedisCAFile:           c.KV.Redis.TLS.CAFile,
		RedisServerName:       c.KV.Redis.TLS.ServerName,
		MemorySweepInterval:   c.KV.Memory.SweepInterval,
		DocumentSweepInterval: c.KV.Document.SweepInterval,
	}
}
