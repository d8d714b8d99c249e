package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"todo-app/internal/apperr"
	"todo-app/internal/logger"
	"todo-app/pkg/validation"

	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Detail     string                  `json:"detail"`
	StatusCode int                     `json:"status_code"`
	Errors     []validation.FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Error("Failed to encode response")
	}
}

// writeError maps err to its status and writes the shared error body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := errorResponse(r, err)
	if body.StatusCode == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSON(w, body.StatusCode, body)
}

// errorResponse builds the error body for err. Internal errors are logged
// in full and reduced to a generic message.
func errorResponse(r *http.Request, err error) ErrorResponse {
	appErr := apperr.As(err)
	status := appErr.Kind.Status()

	entry := logger.Request(r.Method, r.URL.Path).WithField("status", status)
	if appErr.Kind == apperr.KindInternal {
		entry.WithError(err).Error("Request failed")
	} else {
		entry.WithFields(logrus.Fields{"kind": appErr.Kind.String(), "detail": appErr.Message}).Debug("Request rejected")
	}

	return ErrorResponse{
		Detail:     appErr.PublicMessage(),
		StatusCode: status,
		Errors:     appErr.Fields,
	}
}

// decodeJSON reads a JSON request body into dst. Malformed bodies become
// bad request errors.
func decodeJSON(r *http.Request, dst any) error {
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return apperr.BadRequest("Request body is required")
		case errors.As(err, &typeErr):
			return apperr.Validation(validation.FieldError{
				Field:   typeErr.Field,
				Message: fmt.Sprintf("Expected %s", typeErr.Type),
				Type:    validation.TypeInvalid,
			})
		default:
			return apperr.BadRequest("Invalid request body")
		}
	}
	return nil
}

// Optional distinguishes an absent JSON field from an explicit null
type Optional[T any] struct {
	Set   bool
	Value *T
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}
