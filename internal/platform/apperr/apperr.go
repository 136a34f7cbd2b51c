// Package apperr defines the error kinds surfaced by the service layer and
// their HTTP status mapping. Repositories translate store failures into
// these kinds (see db.MapError); handlers never inspect driver errors.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorises an error for callers and for status mapping.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindInsufficientStock Kind = "insufficient_stock"
	KindUnavailable       Kind = "unavailable"
	KindTimeout           Kind = "timeout"
	KindInternal          Kind = "internal"
)

// Error is a structured service error.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"error"`
	// Detail carries store diagnostics for operators. Clients must not
	// depend on it.
	Detail string `json:"detail,omitempty"`
	Cause  error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return newf(KindValidation, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return newf(KindNotFound, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return newf(KindConflict, format, args...)
}

func InsufficientStock(format string, args ...any) *Error {
	return newf(KindInsufficientStock, format, args...)
}

// Unavailable wraps a store error that indicates the store could not be reached.
func Unavailable(cause error, format string, args ...any) *Error {
	e := newf(KindUnavailable, format, args...)
	e.Cause = cause
	if cause != nil {
		e.Detail = cause.Error()
	}
	return e
}

// Timeout wraps a store error caused by an exceeded deadline.
func Timeout(cause error, format string, args ...any) *Error {
	e := newf(KindTimeout, format, args...)
	e.Cause = cause
	if cause != nil {
		e.Detail = cause.Error()
	}
	return e
}

// Internal wraps an unexpected failure, keeping the cause for logs.
func Internal(cause error, format string, args ...any) *Error {
	e := newf(KindInternal, format, args...)
	e.Cause = cause
	if cause != nil {
		e.Detail = cause.Error()
	}
	return e
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// StatusCode maps a kind to its HTTP status.
func StatusCode(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindInsufficientStock:
		return http.StatusConflict
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// From converts any error into an *Error. Errors without a kind become
// internal errors that keep the original message as detail.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err, "unexpected error")
}
