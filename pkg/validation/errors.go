package validation

import "strings"

// Field error types, stable identifiers clients can switch on.
const (
	TypeMissing      = "missing"
	TypeTooShort     = "string_too_short"
	TypeTooLong      = "string_too_long"
	TypeInvalid      = "value_error"
	TypeInvalidEmail = "value_error.email"
)

// FieldError describes one invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Errors collects every field error found in a request.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return strings.Join(parts, "; ")
}

func (e *Errors) add(field, message, typ string) {
	*e = append(*e, FieldError{Field: field, Message: message, Type: typ})
}

func (e Errors) orNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
