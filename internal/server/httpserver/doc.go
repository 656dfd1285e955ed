// Package httpserver provides the HTTP server for the kvsession demo.
//
// Routes:
//
//   - /, /delete, /renew, /regen, /me: demo application behind the
//     session middleware
//   - /health: backend liveness
//   - /metrics: Prometheus exposition (path configurable)
//
// Every route runs behind Recover, RequestID, Audit and, when
// configured, RateLimit.
package httpserver
