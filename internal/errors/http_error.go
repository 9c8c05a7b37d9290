package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so the HTTP layer can map it to a status code
// without inspecting messages.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindUnauthorized      Kind = "unauthorized"
	KindForbidden         Kind = "forbidden"
	KindBadRequest        Kind = "bad_request"
	KindNotFound          Kind = "not_found"
	KindRemoteUnavailable Kind = "remote_unavailable"
	KindExhaustedRetries  Kind = "exhausted_retries"
	KindCancelled         Kind = "cancelled"
	KindMapping           Kind = "mapping"
	// KindBadResponse is a remote answer that arrived but could not be read.
	// It is not retried: a POST may already have taken effect.
	KindBadResponse       Kind = "bad_response"
	KindInternal          Kind = "internal"
)

// HTTPError represents an error with an associated kind and HTTP status code.
type HTTPError struct {
	Kind    Kind
	Code    int
	Message string
	// RemoteStatus is the status returned by the remote backend, 0 when the
	// failure never reached it.
	RemoteStatus int
	Attempts     int
	Err          error
}

func (e *HTTPError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("%s (after %d attempts)", e.Message, e.Attempts)
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// Is matches another *HTTPError by kind, so errors.Is(err, ErrNotFound) works.
func (e *HTTPError) Is(target error) bool {
	t, ok := target.(*HTTPError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

// NewHTTPError creates a new HTTPError with the given code and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Kind:    kindForCode(code),
		Code:    code,
		Message: message,
	}
}

// New builds an error of the given kind with the kind's default status code.
func New(kind Kind, message string) *HTTPError {
	return &HTTPError{Kind: kind, Code: StatusFor(kind), Message: message}
}

// Wrap builds an error of the given kind around cause.
func Wrap(kind Kind, message string, cause error) *HTTPError {
	e := New(kind, message)
	e.Err = cause
	return e
}

// Sentinels for errors.Is checks.
var (
	ErrValidation        = &HTTPError{Kind: KindValidation}
	ErrUnauthorized      = &HTTPError{Kind: KindUnauthorized}
	ErrForbidden         = &HTTPError{Kind: KindForbidden}
	ErrBadRequest        = &HTTPError{Kind: KindBadRequest}
	ErrNotFound          = &HTTPError{Kind: KindNotFound}
	ErrRemoteUnavailable = &HTTPError{Kind: KindRemoteUnavailable}
	ErrExhaustedRetries  = &HTTPError{Kind: KindExhaustedRetries}
	ErrCancelled         = &HTTPError{Kind: KindCancelled}
	ErrBadResponse       = &HTTPError{Kind: KindBadResponse}
)

func Validation(message string) *HTTPError {
	return New(KindValidation, message)
}

func NotFound(message string) *HTTPError {
	return New(KindNotFound, message)
}

func Internal(message string, cause error) *HTTPError {
	return Wrap(KindInternal, message, cause)
}

// KindOf returns the kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var he *HTTPError
	if stderrors.As(err, &he) {
		return he.Kind
	}
	return KindInternal
}

// IsRetryable reports whether err is a remote failure worth another attempt.
func IsRetryable(err error) bool {
	return KindOf(err) == KindRemoteUnavailable
}

// IsAuth reports whether err means the session token must be renewed.
func IsAuth(err error) bool {
	k := KindOf(err)
	return k == KindUnauthorized || k == KindForbidden
}

// StatusFor maps a kind to the status code returned to the browser.
func StatusFor(kind Kind) int {
	switch kind {
	case KindValidation, KindBadRequest, KindMapping:
		return http.StatusBadRequest
	case KindUnauthorized, KindForbidden:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindRemoteUnavailable, KindExhaustedRetries, KindBadResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// StatusCode returns the status code to answer with for err.
func StatusCode(err error) int {
	var he *HTTPError
	if stderrors.As(err, &he) {
		if he.Code != 0 {
			return he.Code
		}
		return StatusFor(he.Kind)
	}
	return http.StatusInternalServerError
}

func kindForCode(code int) Kind {
	switch code {
	case http.StatusBadRequest:
		return KindBadRequest
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return KindRemoteUnavailable
	default:
		return KindInternal
	}
}
