package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrExpired indicates the document is past its expiry and was never completed.
var ErrExpired = errors.New("document has expired")

// ErrAlreadySigned indicates the signature record has already been captured.
var ErrAlreadySigned = errors.New("signature already captured")

// ErrAlreadyLocked indicates the document already carries every required signature and is locked.
var ErrAlreadyLocked = errors.New("document is locked")

// ErrStorage indicates the underlying store could not evaluate an operation (connectivity loss, timeouts).
var ErrStorage = errors.New("storage failure")

// AppError carries an HTTP-ish status code alongside a message and the wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the wrapped cause to errors.Is / errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is lets a 500-class AppError match ErrStorage so callers can classify infrastructure failures.
func (e *AppError) Is(target error) bool {
	return target == ErrStorage && e.Code >= http.StatusInternalServerError
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError wraps ErrNotFound with a message.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: http.StatusNotFound, Message: message, Err: ErrNotFound}
}

// NewStorageError wraps an infrastructure failure so it is classified as ErrStorage.
func NewStorageError(message string, err error) *AppError {
	return &AppError{Code: http.StatusServiceUnavailable, Message: message, Err: err}
}
