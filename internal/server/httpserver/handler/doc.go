// Package handler provides the HTTP handlers of the kvsession demo
// application.
//
//   - demo.go: the session walkthrough pages (/, /delete, /renew, /regen, /me)
//   - health.go: liveness against the configured backend
//   - page.go: the HTML page template
//
// Handlers read the session from the request context. They must be
// mounted behind storage.Middleware and session.Manager.Middleware.
package handler
