// Package apperr defines coded application errors shared by the HTTP layer
// and the components it orchestrates.
package apperr

import (
	"errors"
	"fmt"
)

// Standard error codes for the application.
const (
	CodeUnknown     = "UNKNOWN"
	CodeValidation  = "VALIDATION"
	CodeNotFound    = "NOT_FOUND"
	CodeDuplicate   = "DUPLICATE"
	CodeUnavailable = "UNAVAILABLE"
	CodeExternal    = "EXTERNAL"
	CodeDatabase    = "DATABASE"
)

// ApplicationError is implemented by every coded error.
type ApplicationError interface {
	error
	Code() string
	Message() string
	Unwrap() error
}

// Error is a coded error. Message is safe to show to API clients; the
// wrapped cause is only logged.
type Error struct {
	code    string
	message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}
	return e.message
}

func (e *Error) Code() string {
	return e.code
}

func (e *Error) Message() string {
	return e.message
}

func (e *Error) Unwrap() error {
	return e.err
}

// Code returns the code of the first ApplicationError in err's chain,
// or CodeUnknown if there is none.
func Code(err error) string {
	var appErr ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}
	return CodeUnknown
}

// Message returns the client-facing message of err, or fallback when err
// carries no ApplicationError.
func Message(err error, fallback string) string {
	var appErr ApplicationError
	if errors.As(err, &appErr) && appErr.Message() != "" {
		return appErr.Message()
	}
	return fallback
}

func New(code, message string, cause error) error {
	return &Error{code: code, message: message, err: cause}
}

func NewValidationError(message string, cause error) error {
	return New(CodeValidation, message, cause)
}

func NewNotFoundError(message string) error {
	return New(CodeNotFound, message, nil)
}

func NewDuplicateError(message string, cause error) error {
	return New(CodeDuplicate, message, cause)
}

func NewUnavailableError(message string, cause error) error {
	return New(CodeUnavailable, message, cause)
}

func NewExternalError(message string, cause error) error {
	return New(CodeExternal, message, cause)
}

func NewDatabaseError(message string, cause error) error {
	return New(CodeDatabase, message, cause)
}
