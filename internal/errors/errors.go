// Package errors implements the repo engine's error taxonomy (spec §7):
// input, not-found, corruption, conflict, I/O, and password-wrong errors
// all surface as a single typed *Error at the topmost operation.
package errors

import (
	"net/http"
)

type ErrorType string

const (
	ErrorTypeInput        ErrorType = "INPUT"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeCorruption   ErrorType = "CORRUPTION"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeIO           ErrorType = "IO"
	ErrorTypePassword     ErrorType = "PASSWORD"
	ErrorTypeValidation   ErrorType = "VALIDATION"
	ErrorTypeInternal     ErrorType = "INTERNAL"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
)

// Error is the structured error surfaced to callers of the engine. No
// error other than *Error should escape a top-level operation.
type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Details any       `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

func NotFound(message string) *Error {
	return &Error{Type: ErrorTypeNotFound, Message: message, Code: http.StatusNotFound}
}

func ValidationError(message string, details any) *Error {
	return &Error{Type: ErrorTypeValidation, Message: message, Code: http.StatusBadRequest, Details: details}
}

func InputError(message string) *Error {
	return &Error{Type: ErrorTypeInput, Message: message, Code: http.StatusBadRequest}
}

func Corruption(message string) *Error {
	return &Error{Type: ErrorTypeCorruption, Message: message, Code: http.StatusUnprocessableEntity}
}

func Conflict(message string) *Error {
	return &Error{Type: ErrorTypeConflict, Message: message, Code: http.StatusConflict}
}

func IOError(message string) *Error {
	return &Error{Type: ErrorTypeIO, Message: message, Code: http.StatusInternalServerError}
}

func PasswordError(message string) *Error {
	return &Error{Type: ErrorTypePassword, Message: message, Code: http.StatusUnauthorized}
}
