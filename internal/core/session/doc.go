// Package session implements cookie-backed sessions over a storage.Store.
//
// A Manager is installed as HTTP middleware behind storage.Middleware.
// For every request it reads the session cookie, verifies its signature
// when a secret is configured, loads the record for that identifier and
// attaches an immutable *State to the request context. Handlers then call
// Create, Renew, Regenerate or Delete, or guard routes with DenyAccess.
//
// Lifecycle of one identifier:
//
//	Unset -> Active (created) -> Active (renewed)* -> Active (regenerated, new id)* -> Deleted
//
// An expired record is indistinguishable from one that never existed.
//
// Records are keyed by request host and identifier. The record value is
// opaque to this package; expiry is left entirely to the backend TTL,
// which is never shorter than MinTTL.
//
// Auto-renewal writes the refreshed cookie synchronously and the KV write
// in a detached goroutine that outlives the request. Manager.Wait drains
// those writes at shutdown.
package session
