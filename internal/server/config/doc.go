// Package config provides server configuration for kvsession.
//
// This package defines the server configuration structure and validation:
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation of values and referenced files
//   - sanitize.go: Log sanitization (hide sensitive values)
//   - convert.go: Translation into session and backend settings
//
// Configuration is loaded via internal/infra/confloader from a YAML file
// and KVSESSION_ environment variables.
package config
