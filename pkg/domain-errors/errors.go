// Package domainerrors provides coded errors for the service boundary.
//
// Services return these so transports can translate them into HTTP statuses
// without inspecting error strings. Stores return sentinel errors
// (pkg/platform/sentinel) instead; services translate at the seam.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error.
type Code string

const (
	// CodeValidation covers malformed payloads, illegal lifecycle
	// transitions, and role mismatches. Clients should fix the request.
	CodeValidation Code = "validation"
	// CodeConflict means the request lost a concurrent race (e.g. two NGOs
	// claiming the same donation). Clients may refresh and retry.
	CodeConflict Code = "conflict"
	// CodeNotFound means the referenced entity does not exist.
	CodeNotFound Code = "not_found"
	// CodeUnauthorized means the credential is missing or invalid.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden means the credential is valid but the actor may not
	// perform the operation.
	CodeForbidden Code = "forbidden"
	// CodeInvariantViolation marks a model-level invariant breach. Services
	// usually re-wrap it as validation or conflict before it leaves the core.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeBadRequest covers transport-level decode failures.
	CodeBadRequest Code = "bad_request"
	// CodeInternal is everything else.
	CodeInternal Code = "internal"
)

// Error carries a code, a human-readable message, and an optional cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf builds a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the public message from err. Internal errors get a
// generic message so causes never leak to clients.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Code != CodeInternal {
		return de.Message
	}
	return "internal error"
}

// ToHTTPStatus maps a code onto the transport status used by the JSON API.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest, CodeInvariantViolation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
