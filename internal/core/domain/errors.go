package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// DomainError represents a failure with a structured error code.
type DomainError struct {
	Code    string // Error code (e.g., "KS-SYS-5001")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches any *DomainError carrying the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return code == "" || de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// HTTPStatus maps an error to the HTTP status its code encodes.
// Errors without a code, and malformed codes, map to 500.
func HTTPStatus(err error) int {
	code := GetErrorCode(err)
	idx := strings.LastIndex(code, "-")
	if idx < 0 || len(code)-idx-1 != 4 {
		return http.StatusInternalServerError
	}
	status, convErr := strconv.Atoi(code[idx+1 : idx+4])
	if convErr != nil || status < 400 || status > 599 {
		return http.StatusInternalServerError
	}
	return status
}

// Session engine errors (SESS).
var (
	// ErrStoreNotAttached means the session middleware ran before a KV store
	// was placed on the request context. It is a wiring error.
	ErrStoreNotAttached = NewDomainError("KS-SYS-5001", "key-value store not available")

	// ErrUnsupportedBackend means the attached store reports a backend kind
	// the session engine cannot encode keys for.
	ErrUnsupportedBackend = NewDomainError("KS-SYS-5002", "unsupported key-value backend")

	// ErrIDGeneration means the random source failed while minting an identifier.
	ErrIDGeneration = NewDomainError("KS-SESS-5003", "session id generation failed")

	// ErrInvalidSession is the default rejection used by access gates.
	ErrInvalidSession = NewDomainError("KS-SESS-4010", "Invalid session")
)

// Key-value adapter errors (KV).
var (
	// ErrStoreUnavailable wraps I/O failures talking to the backend.
	ErrStoreUnavailable = NewDomainError("KS-KV-5030", "key-value store unavailable")

	// ErrStoreClosed is returned by adapters after Close.
	ErrStoreClosed = NewDomainError("KS-KV-5031", "key-value store closed")

	// ErrInvalidKey is returned for keys with empty components.
	ErrInvalidKey = NewDomainError("KS-KV-4000", "invalid key")
)

// Configuration errors (CFG).
var (
	// ErrInvalidConfig indicates a configuration value failed validation.
	ErrInvalidConfig = NewDomainError("KS-CFG-4000", "invalid configuration")

	// ErrUnknownBackend indicates kv.backend names no known adapter.
	ErrUnknownBackend = NewDomainError("KS-CFG-4001", "unknown key-value backend")
)

// System errors (SYS).
var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("KS-SYS-5000", "internal server error")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("KS-SYS-4290", "too many requests")
)
