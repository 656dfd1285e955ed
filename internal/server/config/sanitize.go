// Package config defines the server configuration structure.
package config

import "strings"

// Sanitize returns a copy of the config with sensitive fields masked.
//
// This is used for logging configuration without exposing secrets.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg

	if sanitized.Session.Secret != "" {
		sanitized.Session.Secret = maskSecret(sanitized.Session.Secret)
	}
	if sanitized.KV.Redis.Password != "" {
		sanitized.KV.Redis.Password = maskSecret(sanitized.KV.Redis.Password)
	}
	if sanitized.KV.Badger.EncryptionKey != "" {
		sanitized.KV.Badger.EncryptionKey = maskSecret(sanitized.KV.Badger.EncryptionKey)
	}

	return &sanitized
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
