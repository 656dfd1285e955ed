// Package token provides session identifier generation and fingerprinting.
//
// Identifiers are cryptographically random byte strings encoded with
// Base64 RawURL so they can travel in a cookie value without escaping.
//
// Fingerprints are short, one-way digests of an identifier. They are
// safe to log and to correlate across log lines, unlike the identifier
// itself which grants access to the session it names.
package token
