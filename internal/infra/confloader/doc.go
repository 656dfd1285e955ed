// Package confloader loads kvsession configuration.
//
// Sources are layered with koanf; later sources override earlier ones:
//
//  1. Defaults (config.Default)
//  2. YAML configuration file
//  3. Environment variables (KVSESSION_ prefix)
//  4. Overrides from command-line flags (WithOverrides)
//
// Environment variable names use a double underscore between sections
// and keep single underscores inside keys:
//
//	KVSESSION_KV__REDIS__DIAL_TIMEOUT=2s  ->  kv.redis.dial_timeout
//
// Watcher reports changes to the configuration file so a running server
// can pick up reloadable settings such as the log level.
package confloader
