package confloader

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/yndnr/kvsession/internal/server/config"
)

// DefaultEnvPrefix prefixes every environment variable the loader reads.
const DefaultEnvPrefix = "KVSESSION_"

// envSeparator separates nesting levels in environment variable names.
// Key names already contain single underscores.
const envSeparator = "__"

// Loader merges configuration sources in increasing priority: YAML
// file, environment, overrides. Each Load starts from scratch so a
// reload never sees keys removed from the file.
type Loader struct {
	envPrefix string
	filePath  string
	overrides map[string]any

	mu      sync.RWMutex
	k       *koanf.Koanf
	sources []string
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) { l.envPrefix = prefix }
}

// WithConfigFile sets the YAML file to read.
func WithConfigFile(path string) Option {
	return func(l *Loader) { l.filePath = path }
}

// WithOverrides sets values that win over every other source. Keys are
// dotted paths such as "server.http.addr".
func WithOverrides(values map[string]any) Option {
	return func(l *Loader) { l.overrides = values }
}

// NewLoader creates a loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{envPrefix: DefaultEnvPrefix, k: koanf.New(".")}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type source struct {
	name     string
	provider koanf.Provider
	parser   koanf.Parser
}

func (l *Loader) pipeline() []source {
	var out []source
	if l.filePath != "" {
		out = append(out, source{"file " + l.filePath, file.Provider(l.filePath), yaml.Parser()})
	}
	if l.hasEnv() {
		out = append(out, source{"env " + l.envPrefix + "*", env.Provider(l.envPrefix, ".", l.envKey), nil})
	}
	if len(l.overrides) > 0 {
		out = append(out, source{"overrides", mapProvider(l.overrides), nil})
	}
	return out
}

func (l *Loader) hasEnv() bool {
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, l.envPrefix) {
			return true
		}
	}
	return false
}

// envKey maps KVSESSION_SERVER__RATE_LIMIT to server.rate_limit.
func (l *Loader) envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, l.envPrefix))
	return strings.ReplaceAll(s, envSeparator, ".")
}

// Load merges every source into target. Fields no source sets keep
// their current values, so callers pass a struct pre-filled with
// defaults.
func (l *Loader) Load(target any) error {
	k := koanf.New(".")
	var applied []string
	for _, src := range l.pipeline() {
		if err := k.Load(src.provider, src.parser); err != nil {
			return fmt.Errorf("load %s: %w", src.name, err)
		}
		applied = append(applied, src.name)
	}
	if err := k.Unmarshal("", target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	l.mu.Lock()
	l.k, l.sources = k, applied
	l.mu.Unlock()
	return nil
}

// LoadServer builds a verified server configuration from defaults and
// the loader's sources.
func (l *Loader) LoadServer() (*config.ServerConfig, error) {
	cfg := config.Default()
	if err := l.Load(cfg); err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// String returns key from the last successful Load.
func (l *Loader) String(key string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.k.String(key)
}

// Sources names the sources applied by the last successful Load, in
// priority order. Defaults are not listed.
func (l *Loader) Sources() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.sources...)
}

// FilePath returns the configured file path, if any.
func (l *Loader) FilePath() string {
	return l.filePath
}
