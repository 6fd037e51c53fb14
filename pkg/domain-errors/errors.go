// Package domainerrors defines coded errors shared by all services.
//
// Handlers map codes to HTTP statuses; services attach codes at the point
// where an operation fails so callers never parse error strings.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for transport mapping and logging.
type Code string

const (
	CodeBadRequest    Code = "bad_request"
	CodeUnauthorized  Code = "unauthorized"
	CodeNotFound      Code = "not_found"
	CodeConflict      Code = "conflict"
	CodeUnprocessable Code = "unprocessable"
	CodeUpstream      Code = "upstream_error"
	CodeInternal      Code = "internal_error"
)

// Error is a coded domain error. Description is safe to show to clients
// except for CodeInternal, which transports must redact.
type Error struct {
	Code        Code
	Description string
	cause       error
}

// New creates a coded error with no underlying cause.
func New(code Code, description string) *Error {
	return &Error{Code: code, Description: description}
}

// Wrap creates a coded error around an underlying cause.
func Wrap(code Code, description string, cause error) *Error {
	return &Error{Code: code, Description: description, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Description, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func (e *Error) Unwrap() error { return e.cause }

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// uncoded errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
