// Package apperr defines the error kinds services return and the HTTP
// status each of them maps to.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"todo-app/pkg/validation"
)

// Kind classifies an error for transport.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
)

// GenericMessage is the only detail ever shown for internal errors.
const GenericMessage = "An unexpected error occurred. Please try again later."

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	default:
		return "internal_error"
	}
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	Fields  []validation.FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(fields ...validation.FieldError) *Error {
	return &Error{Kind: KindValidation, Message: "Validation error", Fields: fields}
}

func BadRequest(message string) *Error {
	return &Error{Kind: KindBadRequest, Message: message}
}

func Unauthorized(message string, err error) *Error {
	return &Error{Kind: KindUnauthorized, Message: message, Err: err}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps an unexpected failure. The message is for logs only.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// FromValidation converts a validator result into a validation error,
// passing through nil and anything that is not a validation.Errors.
func FromValidation(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		return Validation(fieldErrs...)
	}
	return err
}

// As extracts an *Error from err. Unclassified errors come back as internal.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("unclassified error", err)
}

// KindOf reports the kind of err, KindInternal when unclassified.
func KindOf(err error) Kind {
	return As(err).Kind
}

// PublicMessage is the detail safe to return to a caller.
func (e *Error) PublicMessage() string {
	if e.Kind == KindInternal {
		return GenericMessage
	}
	return e.Message
}
