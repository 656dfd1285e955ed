// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for the kvsession server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server" json:"server" yaml:"server"`
	Session SessionSection `koanf:"session" json:"session" yaml:"session"`
	KV      KVSection      `koanf:"kv" json:"kv" yaml:"kv"`
	Log     LogSection     `koanf:"log" json:"log" yaml:"log"`
	Metrics MetricsSection `koanf:"metrics" json:"metrics" yaml:"metrics"`
}

// ServerSection configures the HTTP endpoint.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http" json:"http" yaml:"http"`

	// RateLimit is the per-client request rate in requests per second.
	// Zero disables limiting.
	RateLimit int `koanf:"rate_limit" json:"rate_limit" yaml:"rate_limit"`

	// ShutdownTimeout bounds graceful shutdown, including draining
	// detached session renewals.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr        string `koanf:"addr" json:"addr" yaml:"addr"`
	TLSCertFile string `koanf:"tls_cert_file" json:"tls_cert_file" yaml:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file" json:"tls_key_file" yaml:"tls_key_file"`
}

// SessionSection configures the session engine.
type SessionSection struct {
	// Name is the cookie name.
	Name string `koanf:"name" json:"name" yaml:"name"`

	// TTL is the session lifetime; values under one minute are raised.
	TTL time.Duration `koanf:"ttl" json:"ttl" yaml:"ttl"`

	// Secret signs session cookies when set.
	Secret string `koanf:"secret" json:"secret" yaml:"secret"`

	Renew      bool `koanf:"renew" json:"renew" yaml:"renew"`
	Regenerate bool `koanf:"regenerate" json:"regenerate" yaml:"regenerate"`

	// IDFormat is "token" or "uuid".
	IDFormat string `koanf:"id_format" json:"id_format" yaml:"id_format"`
}

// KVSection selects and configures the key-value backend.
type KVSection struct {
	// Backend is one of memory, redis, badger, document.
	Backend string `koanf:"backend" json:"backend" yaml:"backend"`

	Redis    RedisConfig  `koanf:"redis" json:"redis" yaml:"redis"`
	Badger   BadgerConfig `koanf:"badger" json:"badger" yaml:"badger"`
	Memory   SweepConfig  `koanf:"memory" json:"memory" yaml:"memory"`
	Document SweepConfig  `koanf:"document" json:"document" yaml:"document"`
}

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Addr        string        `koanf:"addr" json:"addr" yaml:"addr"`
	Password    string        `koanf:"password" json:"password" yaml:"password"`
	DB          int           `koanf:"db" json:"db" yaml:"db"`
	DialTimeout time.Duration `koanf:"dial_timeout" json:"dial_timeout" yaml:"dial_timeout"`
	TLS         RedisTLS      `koanf:"tls" json:"tls" yaml:"tls"`
}

// RedisTLS enables TLS towards Redis. CAFile extends the system roots.
type RedisTLS struct {
	Enabled    bool   `koanf:"enabled" json:"enabled" yaml:"enabled"`
	CAFile     string `koanf:"ca_file" json:"ca_file" yaml:"ca_file"`
	ServerName string `koanf:"server_name" json:"server_name" yaml:"server_name"`
}

// BadgerConfig configures the embedded Badger backend.
type BadgerConfig struct {
	Dir           string        `koanf:"dir" json:"dir" yaml:"dir"`
	GCInterval    time.Duration `koanf:"gc_interval" json:"gc_interval" yaml:"gc_interval"`
	GCThreshold   float64       `koanf:"gc_threshold" json:"gc_threshold" yaml:"gc_threshold"`
	EncryptionKey string        `koanf:"encryption_key" json:"encryption_key" yaml:"encryption_key"`
	SyncWrites    bool          `koanf:"sync_writes" json:"sync_writes" yaml:"sync_writes"`
}

// SweepConfig configures in-process backends.
type SweepConfig struct {
	SweepInterval time.Duration `koanf:"sweep_interval" json:"sweep_interval" yaml:"sweep_interval"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" json:"level" yaml:"level"`
	Format string `koanf:"format" json:"format" yaml:"format"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	Enabled bool   `koanf:"enabled" json:"enabled" yaml:"enabled"`
	Path    string `koanf:"path" json:"path" yaml:"path"`
}
