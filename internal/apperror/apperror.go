// Package apperror maps the service's failure kinds onto HTTP responses.
// Handlers and middleware return these values and the central echo error
// handler renders them, so no handler writes an error body itself.
package apperror

import (
	"errors"
	"net/http"
)

// Kind names a failure category independent of transport.
type Kind string

const (
	KindValidation             Kind = "validation"
	KindUnauthenticated        Kind = "unauthenticated"
	KindForbidden              Kind = "forbidden"
	KindNotFound               Kind = "not_found"
	KindNotFoundOrUnauthorized Kind = "not_found_or_unauthorized"
	KindConflict               Kind = "conflict"
	KindInternal               Kind = "internal"
)

// Error carries an HTTP status code alongside a client-facing message.
// Details is only populated for internal errors.
type Error struct {
	Code    int    `json:"-"`
	Kind    Kind   `json:"-"`
	Message string `json:"error"`
	Details string `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func newError(code int, kind Kind, message string) *Error {
	return &Error{Code: code, Kind: kind, Message: message}
}

// Validation creates a 400 error for missing or malformed input.
func Validation(message string) *Error {
	return newError(http.StatusBadRequest, KindValidation, message)
}

// Unauthenticated creates a 401 error for absent, invalid or expired
// credentials.
func Unauthenticated(message string) *Error {
	return newError(http.StatusUnauthorized, KindUnauthenticated, message)
}

// Forbidden creates a 403 error for callers whose role lacks the capability.
func Forbidden(message string) *Error {
	return newError(http.StatusForbidden, KindForbidden, message)
}

// NotFound creates a 404 error for a referenced entity that does not exist.
func NotFound(message string) *Error {
	return newError(http.StatusNotFound, KindNotFound, message)
}

// NotFoundOrUnauthorized is a 404 that must not reveal whether the entity
// exists but belongs to somebody else.
func NotFoundOrUnauthorized(message string) *Error {
	return newError(http.StatusNotFound, KindNotFoundOrUnauthorized, message)
}

// Conflict creates a 409 error for unique key collisions.
func Conflict(message string) *Error {
	return newError(http.StatusConflict, KindConflict, message)
}

// Internal wraps an unexpected store or runtime failure. The cause text is
// surfaced to the client in Details.
func Internal(message string, err error) *Error {
	e := newError(http.StatusInternalServerError, KindInternal, message)
	e.cause = err
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

// FromStatus builds an error for a bare HTTP status, as produced by the
// router or the request binder.
func FromStatus(code int, message string) *Error {
	switch {
	case code == http.StatusBadRequest:
		return Validation(message)
	case code == http.StatusUnauthorized:
		return Unauthenticated(message)
	case code == http.StatusForbidden:
		return Forbidden(message)
	case code == http.StatusNotFound:
		return NotFound(message)
	case code == http.StatusConflict:
		return Conflict(message)
	case code >= http.StatusInternalServerError:
		return newError(code, KindInternal, message)
	default:
		return newError(code, KindValidation, message)
	}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	ae, ok := As(err)
	return ok && ae.Kind == kind
}
