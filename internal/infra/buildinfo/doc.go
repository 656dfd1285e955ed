// Package buildinfo exposes build information for kvsession.
//
// Version, Commit and BuildTime are injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/kvsession/internal/infra/buildinfo.Version=v1.0.0"
//
// The Go version is read from the binary itself.
package buildinfo
