package logger

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	sessionKey
)

// WithRequestID stores the request id in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request id stored in ctx, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithSession stores the fingerprint of the request's session in ctx.
// Never pass a raw session identifier.
func WithSession(ctx context.Context, fingerprint string) context.Context {
	return context.WithValue(ctx, sessionKey, fingerprint)
}

// SessionFromContext returns the session fingerprint stored in ctx.
func SessionFromContext(ctx context.Context) string {
	fp, _ := ctx.Value(sessionKey).(string)
	return fp
}

// contextHandler appends request_id and session attributes taken from
// the record's context.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if id := RequestIDFromContext(ctx); id != "" {
			r.AddAttrs(slog.String("request_id", id))
		}
		if fp := SessionFromContext(ctx); fp != "" {
			r.AddAttrs(slog.String("session", fp))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}
