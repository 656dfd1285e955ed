// Package domain defines the error vocabulary shared by the session
// engine, the KV adapters and the HTTP layer.
//
// Every failure that crosses a package boundary is a *DomainError with a
// stable code of the form KS-<AREA>-<NNNN>. The last four digits start
// with the HTTP status family the error maps to, which lets transport
// code translate errors without knowing each sentinel.
package domain
