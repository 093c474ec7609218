package errors

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// APIError is the error type every layer returns upward.
// Internal carries the original cause for logging and is never serialized.
type APIError struct {
	Status   int    `json:"-"`
	Message  string `json:"error"`
	Internal error  `json:"-"`
}

func (e *APIError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Internal
}

func New(status int, message string, internal error) *APIError {
	return &APIError{Status: status, Message: message, Internal: internal}
}

func BadRequest(message string, internal error) *APIError {
	return New(http.StatusBadRequest, message, internal)
}

func Unauthorized(message string, internal error) *APIError {
	return New(http.StatusUnauthorized, message, internal)
}

func Forbidden(message string, internal error) *APIError {
	return New(http.StatusForbidden, message, internal)
}

func NotFound(message string, internal error) *APIError {
	return New(http.StatusNotFound, message, internal)
}

func Conflict(message string, internal error) *APIError {
	return New(http.StatusConflict, message, internal)
}

func UnprocessableEntity(message string, internal error) *APIError {
	return New(http.StatusUnprocessableEntity, message, internal)
}

func UpstreamUnavailable(message string, internal error) *APIError {
	return New(http.StatusBadGateway, message, internal)
}

func Internal(internal error) *APIError {
	return New(http.StatusInternalServerError, "Internal server error", internal)
}

// NewValidationError turns validator field errors into a readable 400.
func NewValidationError(err error) *APIError {
	if fieldErrors, ok := err.(validator.ValidationErrors); ok {
		messages := make([]string, 0, len(fieldErrors))
		for _, fe := range fieldErrors {
			messages = append(messages, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
		}
		return BadRequest(strings.Join(messages, ", "), err)
	}
	return BadRequest("Invalid request body", err)
}
