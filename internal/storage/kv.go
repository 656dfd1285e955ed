package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yndnr/kvsession/internal/core/domain"
)

// SessionNamespace is the first component of every session key.
const SessionNamespace = "session"

// Kind identifies a backend implementation.
type Kind string

// Supported backends.
const (
	KindMemory   Kind = "memory"
	KindRedis    Kind = "redis"
	KindBadger   Kind = "badger"
	KindDocument Kind = "document"
)

// Kinds lists every backend in a stable order.
func Kinds() []Kind {
	return []Kind{KindMemory, KindRedis, KindBadger, KindDocument}
}

// Valid reports whether k names a known backend.
func (k Kind) Valid() bool {
	switch k {
	case KindMemory, KindRedis, KindBadger, KindDocument:
		return true
	}
	return false
}

// KeyStyle is the shape an adapter gives to a Key.
type KeyStyle int

const (
	// KeyStyleFlat encodes keys as "namespace:host:id".
	KeyStyleFlat KeyStyle = iota
	// KeyStyleTuple encodes keys as []string{namespace, host, id}.
	KeyStyleTuple
)

func (s KeyStyle) String() string {
	switch s {
	case KeyStyleFlat:
		return "flat"
	case KeyStyleTuple:
		return "tuple"
	}
	return fmt.Sprintf("KeyStyle(%d)", int(s))
}

// Key addresses one session record.
type Key struct {
	Namespace string
	Host      string
	ID        string
}

// SessionKey builds the key for a session id scoped to host.
func SessionKey(host, id string) Key {
	return Key{Namespace: SessionNamespace, Host: host, ID: id}
}

// Validate rejects keys with empty components and identifiers that
// contain a colon, which the flat encoding cannot round-trip.
func (k Key) Validate() error {
	switch {
	case k.Namespace == "":
		return domain.ErrInvalidKey.WithDetails("namespace is empty")
	case k.Host == "":
		return domain.ErrInvalidKey.WithDetails("host is empty")
	case k.ID == "":
		return domain.ErrInvalidKey.WithDetails("id is empty")
	case strings.ContainsRune(k.ID, ':'):
		return domain.ErrInvalidKey.WithDetails("id contains ':'")
	}
	return nil
}

// Flat returns the single-string encoding.
func (k Key) Flat() string {
	return k.Namespace + ":" + k.Host + ":" + k.ID
}

// Tuple returns the structured encoding.
func (k Key) Tuple() []string {
	return []string{k.Namespace, k.Host, k.ID}
}

func (k Key) String() string {
	return k.Flat()
}

// HostPrefix returns the flat prefix shared by every key of host in the
// session namespace. An empty host yields the namespace prefix.
func HostPrefix(host string) string {
	if host == "" {
		return SessionNamespace + ":"
	}
	return SessionNamespace + ":" + host + ":"
}

// ParseFlatKey is the inverse of Key.Flat. Hosts may contain colons
// (IPv6 literals); identifiers may not.
func ParseFlatKey(s string) (Key, error) {
	first := strings.IndexByte(s, ':')
	last := strings.LastIndexByte(s, ':')
	if first < 0 || first == last {
		return Key{}, domain.ErrInvalidKey.WithDetails(s)
	}
	k := Key{Namespace: s[:first], Host: s[first+1 : last], ID: s[last+1:]}
	if err := k.Validate(); err != nil {
		return Key{}, err
	}
	return k, nil
}

// Store is the capability every backend adapter provides.
// Implementations must be safe for concurrent use.
type Store interface {
	// Kind identifies the backend.
	Kind() Kind

	// KeyStyle is fixed for the lifetime of the store.
	KeyStyle() KeyStyle

	// Get returns the value stored under key. found is false when the
	// record is missing or expired.
	Get(ctx context.Context, key Key) (value []byte, found bool, err error)

	// Set stores value under key, replacing any previous record, and
	// expires it after ttl. A ttl <= 0 stores without expiry.
	Set(ctx context.Context, key Key, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key Key) error

	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend connection.
	Close() error
}

// Entry is a live record returned by Lister.Scan.
type Entry struct {
	Key       Key
	Value     []byte
	ExpiresAt time.Time // zero when the record never expires
}

// TTL returns the time left before e expires, relative to now.
func (e Entry) TTL(now time.Time) time.Duration {
	if e.ExpiresAt.IsZero() {
		return 0
	}
	if d := e.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Lister is implemented by stores that can enumerate their records.
type Lister interface {
	// Scan calls fn for every live session record of host, in key order
	// where the backend allows it. An empty host scans all hosts.
	// Iteration stops when fn returns false.
	Scan(ctx context.Context, host string, fn func(Entry) bool) error
}

// closedChecker is implemented by adapters that track their lifecycle.
type closedChecker interface {
	IsClosed() bool
}

// IsClosed reports whether store is nil or has been closed.
func IsClosed(store Store) bool {
	if store == nil {
		return true
	}
	if c, ok := store.(closedChecker); ok {
		return c.IsClosed()
	}
	return false
}
