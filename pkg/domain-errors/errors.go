// Package domainerrors carries coded errors across layers. Services return
// these so transports can map a failure to a response without inspecting
// messages, and so tests can assert on the failure category.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain failure.
type Code string

const (
	// CodeNotFound: a referenced applicant, procedure, license, resource or
	// appointment does not exist.
	CodeNotFound Code = "not_found"
	// CodeInvalidState: the entity's current status does not permit the operation.
	CodeInvalidState Code = "invalid_state"
	// CodeEligibility: the applicant is not eligible (age, disqualification,
	// active procedure, missing or present prior license).
	CodeEligibility Code = "eligibility_violation"
	// CodeConflict: a uniqueness or time-overlap rule would be broken.
	CodeConflict Code = "conflict"
	// CodeGenerationExhausted: an identifier could not be generated within the
	// bounded number of attempts. Callers may retry the whole operation.
	CodeGenerationExhausted Code = "generation_exhausted"
	CodeInvalidInput        Code = "invalid_input"
	CodeTimeout             Code = "timeout"
	CodeInternal            Code = "internal_error"
)

// Error is a coded domain error. Err is the optional underlying cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a coded error without a cause.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
// Wrapping a nil error returns nil.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether any coded error in err's chain carries code.
func HasCode(err error, code Code) bool {
	var de *Error
	for err != nil {
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// Is is shorthand for HasCode, kept for call sites that read better as a question.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// IsCoded reports whether err's chain carries a domain code.
func IsCoded(err error) bool {
	var de *Error
	return errors.As(err, &de)
}

// MessageOf returns the outermost domain message, or a generic one for
// uncoded errors so infrastructure details never reach clients.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// HTTPStatus maps a code to an HTTP status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidState, CodeConflict:
		return http.StatusConflict
	case CodeEligibility:
		return http.StatusUnprocessableEntity
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeGenerationExhausted:
		return http.StatusServiceUnavailable
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
