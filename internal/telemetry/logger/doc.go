// Package logger wraps log/slog for kvsession.
//
// Every logger built by New shares one level, which SetLevel changes at
// runtime when the configuration file is edited. Records logged with a
// context pick up the request id and session fingerprint stored there
// by WithRequestID and WithSession.
//
// String attributes whose key names secret material (passwords, cookies,
// session ids, tokens) are replaced with Redacted before they are
// written. Code that needs a stable handle on a session logs
// token.Fingerprint of the identifier instead.
package logger
