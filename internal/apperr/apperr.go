// Package apperr provides the structured error type shared by the gate and
// the classification gateway. Every failure a handler can see carries a Kind
// so callers can tell retryable conditions from permanent ones.
package apperr

import (
	stderrs "errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure. Values are stable; add sparingly.
type Kind string

const (
	// KindUnknown is for unclassified errors.
	KindUnknown Kind = "unknown"

	// KindValidation is for local input-shape failures (email, password, code).
	// These never reach the network.
	KindValidation Kind = "validation-error"

	// KindProvider is for operations the identity provider rejected.
	KindProvider Kind = "provider-error"

	// KindMissingInput is for an absent or empty request payload.
	KindMissingInput Kind = "missing-input"

	// KindMissingCredential is a deployment misconfiguration, never a
	// per-request condition.
	KindMissingCredential Kind = "missing-credential"

	// KindRateLimited mirrors an upstream 429; the upstream message is
	// passed through verbatim.
	KindRateLimited Kind = "rate-limited"

	// KindQuotaExhausted mirrors an upstream 402.
	KindQuotaExhausted Kind = "quota-exhausted"

	// KindUpstream is any other non-success upstream status.
	KindUpstream Kind = "upstream-error"

	// KindMalformedOutput is for model output that is not the single JSON
	// object the prompt demands.
	KindMalformedOutput Kind = "malformed-model-output"

	// KindInvalidCategory is for a category outside the enumerated set.
	KindInvalidCategory Kind = "invalid-category"
)

// HTTPStatus turns a Kind into an HTTP status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindMissingInput, KindMalformedOutput, KindInvalidCategory:
		return http.StatusBadRequest
	case KindProvider:
		return http.StatusUnauthorized
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindQuotaExhausted:
		return http.StatusPaymentRequired
	case KindUpstream:
		return http.StatusBadGateway
	case KindMissingCredential, KindUnknown:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Error is the structured error type. msg is user facing; kind is machine
// facing; orig is the wrapped cause.
type Error struct {
	kind Kind
	msg  string
	orig error
}

// New builds an Error with a Kind and message.
func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// Newf builds an Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error around a cause.
func Wrap(err error, kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg, orig: err}
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error { return e.orig }

// Kind returns the error classification.
func (e *Error) Kind() Kind { return e.kind }

// Message returns the user-facing message without the cause chain.
func (e *Error) Message() string { return e.msg }

// KindOf extracts the Kind from any error, walking the wrap chain.
// Unclassified errors report KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if stderrs.As(err, &e) {
		return e.kind
	}
	return KindUnknown
}

// HTTPStatus maps any error to an HTTP status code.
func HTTPStatus(err error) int {
	return KindOf(err).HTTPStatus()
}

// MessageOf returns the user-facing message for any error. Unclassified
// errors get a generic message so internals never leak to the wire.
func MessageOf(err error) string {
	var e *Error
	if stderrs.As(err, &e) {
		return e.msg
	}
	return "internal server error"
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
