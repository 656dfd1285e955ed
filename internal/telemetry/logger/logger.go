package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is the application logger interface.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithContext(ctx context.Context) Logger
}

// Config holds logger configuration.
type Config struct {
	Level     string    // debug, info, warn, error
	Format    string    // json, text (console is an alias of text)
	Output    io.Writer // defaults to os.Stderr
	AddSource bool
}

// level is shared by every logger built by New, so SetLevel takes effect
// process-wide.
var level = new(slog.LevelVar)

// New builds a logger writing to cfg.Output. It also resets the process
// level to cfg.Level.
func New(cfg Config) (Logger, error) {
	lv, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return redact(a)
		},
	}

	var base slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "json":
		base = slog.NewJSONHandler(out, opts)
	case "text", "console":
		base = slog.NewTextHandler(out, opts)
	default:
		return nil, fmt.Errorf("logger: unknown format %q", cfg.Format)
	}

	level.Set(lv)
	return &entry{log: slog.New(contextHandler{base}), ctx: context.Background()}, nil
}

// entry binds a slog.Logger to the context its records are logged with.
type entry struct {
	log *slog.Logger
	ctx context.Context
}

func (e *entry) Debug(msg string, args ...any) { e.log.DebugContext(e.ctx, msg, args...) }
func (e *entry) Info(msg string, args ...any)  { e.log.InfoContext(e.ctx, msg, args...) }
func (e *entry) Warn(msg string, args ...any)  { e.log.WarnContext(e.ctx, msg, args...) }
func (e *entry) Error(msg string, args ...any) { e.log.ErrorContext(e.ctx, msg, args...) }

func (e *entry) With(args ...any) Logger {
	return &entry{log: e.log.With(args...), ctx: e.ctx}
}

// WithContext returns a logger whose records carry the request id and
// session fingerprint stored in ctx.
func (e *entry) WithContext(ctx context.Context) Logger {
	return &entry{log: e.log, ctx: ctx}
}

// Slog returns the *slog.Logger behind l for libraries that take one.
// Records logged through it with a context are enriched the same way.
func Slog(l Logger) *slog.Logger {
	if e, ok := l.(*entry); ok && e != nil {
		return e.log
	}
	return slog.Default()
}

// ParseLevel accepts debug, info, warn (or warning) and error in any case.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("logger: unknown level %q", s)
}

// ValidLevel reports whether ParseLevel accepts s. The empty string is
// rejected so configuration must name a level.
func ValidLevel(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	_, err := ParseLevel(s)
	return err == nil
}

// SetLevel changes the level of every logger built by New. Unknown
// levels are ignored.
func SetLevel(s string) {
	if lv, err := ParseLevel(s); err == nil {
		level.Set(lv)
	}
}

// Level returns the current process level.
func Level() slog.Level {
	return level.Level()
}

var defaultLogger atomic.Pointer[entry]

func init() {
	l, _ := New(Config{})
	defaultLogger.Store(l.(*entry))
}

// SetDefault replaces the logger returned by Default and installs it as
// the slog default. Loggers not built by New are ignored.
func SetDefault(l Logger) {
	e, ok := l.(*entry)
	if !ok || e == nil {
		return
	}
	defaultLogger.Store(e)
	slog.SetDefault(e.log)
}

// Default returns the process logger.
func Default() Logger {
	return defaultLogger.Load()
}
