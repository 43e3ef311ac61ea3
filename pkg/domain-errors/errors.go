// Package domainerrors defines the coded error taxonomy surfaced to callers of
// the dossier service. Infrastructure layers return sentinel errors; services
// translate them into one of these codes before they leave the domain.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code classifies a domain error.
type Code string

const (
	// CodeInvalidInput marks malformed input, such as a CPF failing its
	// check digits.
	CodeInvalidInput Code = "invalid_input"
	// CodeNotFound marks a public key with no surrogate key in the primary store.
	CodeNotFound Code = "not_found"
	// CodeTimeout marks an operation that exceeded its deadline.
	CodeTimeout Code = "timeout"
	// CodeRouting marks a shard table that does not cover a key. It is a
	// configuration defect, not a request error.
	CodeRouting Code = "routing_error"
	// CodeUnavailable marks a store that could not be reached.
	CodeUnavailable Code = "store_unavailable"
	// CodeShuttingDown is returned once the process started draining.
	CodeShuttingDown Code = "shutting_down"
	// CodeCancelled marks work cancelled by the tracker before completion.
	CodeCancelled Code = "cancelled"
	CodeInternal  Code = "internal_error"
)

// Error is a coded error with a caller-safe message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether any error in err's chain carries code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias of HasCode kept for call sites that read better with it.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the code of the outermost coded error in err's chain, or
// CodeInternal when there is none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the status the transport layer responds with.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeUnavailable, CodeShuttingDown:
		return http.StatusServiceUnavailable
	case CodeCancelled:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
