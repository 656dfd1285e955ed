package logger

import (
	"log/slog"
	"strings"
)

// Redacted replaces the value of sensitive attributes.
const Redacted = "[redacted]"

// sensitiveFragments are matched against attribute keys with case and
// separators removed, so "Session-ID" and "session_id" both match.
var sensitiveFragments = []string{
	"password",
	"secret",
	"token",
	"cookie",
	"sessionid",
	"credential",
	"authorization",
	"encryptionkey",
}

// redact is installed as ReplaceAttr, which slog calls for every
// non-group attribute including those nested in groups.
func redact(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString && a.Value.String() != "" && Sensitive(a.Key) {
		return slog.String(a.Key, Redacted)
	}
	return a
}

// Sensitive reports whether an attribute key names secret material.
func Sensitive(key string) bool {
	k := strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', '.', ' ':
			return -1
		}
		return r
	}, strings.ToLower(key))
	for _, f := range sensitiveFragments {
		if strings.Contains(k, f) {
			return true
		}
	}
	return false
}
