package session

import (
	"net/http"
	"time"

	"github.com/yndnr/kvsession/internal/core/domain"
)

const (
	// DefaultName is the default cookie name.
	DefaultName = "id"

	// DefaultTTL is the default session lifetime (one week).
	DefaultTTL = 604800 * time.Second

	// MinTTL is the floor applied to every TTL before it reaches the
	// backend or the cookie.
	MinTTL = 60 * time.Second

	// DefaultRenewTimeout bounds a detached renewal write.
	DefaultRenewTimeout = 5 * time.Second
)

// Identifier formats.
const (
	IDFormatToken = "token"
	IDFormatUUID  = "uuid"
)

// Config configures a Manager.
type Config struct {
	// Name is the cookie name.
	Name string

	// TTL is the session lifetime. Values below MinTTL are raised to it.
	TTL time.Duration

	// Secret, when set, signs issued cookies and rejects incoming cookies
	// whose signature does not verify.
	Secret string

	// Renew refreshes the TTL of active sessions on every request.
	Renew bool

	// Regenerate rotates the identifier of active sessions on every
	// request. It takes precedence over Renew.
	Regenerate bool

	// IDFormat selects the identifier generator: "token" or "uuid".
	IDFormat string

	// RenewTimeout bounds each detached renewal write.
	RenewTimeout time.Duration
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		Name:         DefaultName,
		TTL:          DefaultTTL,
		Renew:        true,
		Regenerate:   false,
		IDFormat:     IDFormatToken,
		RenewTimeout: DefaultRenewTimeout,
	}
}

// withDefaults fills zero values.
func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.TTL == 0 {
		c.TTL = DefaultTTL
	}
	if c.IDFormat == "" {
		c.IDFormat = IDFormatToken
	}
	if c.RenewTimeout <= 0 {
		c.RenewTimeout = DefaultRenewTimeout
	}
	return c
}

// Validate checks the configuration.
func (c Config) Validate() error {
	c = c.withDefaults()

	if !validCookieName(c.Name) {
		return domain.ErrInvalidConfig.WithDetails("session.name is not a valid cookie name: " + c.Name)
	}
	if c.TTL < 0 {
		return domain.ErrInvalidConfig.WithDetails("session.ttl must not be negative")
	}
	switch c.IDFormat {
	case IDFormatToken, IDFormatUUID:
	default:
		return domain.ErrInvalidConfig.WithDetails("session.id_format must be token or uuid")
	}
	return nil
}

// clampTTL applies the MinTTL floor.
func clampTTL(ttl time.Duration) time.Duration {
	if ttl < MinTTL {
		return MinTTL
	}
	return ttl
}

// validCookieName reports whether name is an RFC 6265 token.
func validCookieName(name string) bool {
	return name != "" && (&http.Cookie{Name: name, Value: "x"}).Valid() == nil
}
