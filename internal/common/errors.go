package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error kinds. ErrValidation is rejected synchronously at the call boundary;
// ErrStorage and ErrProvider are captured onto document state and observed by
// polling, not thrown past the pipeline.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrValidation = errors.New("validation failed")
	ErrStorage    = errors.New("storage error")
	ErrProvider   = errors.New("provider error")
	ErrConflict   = errors.New("conflicting state")
	ErrInternal   = errors.New("internal error")
)

// NewAppError builds an AppError with a stable code.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ValidationErrorf returns an error classified as ErrValidation.
func ValidationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// StorageErrorf wraps a blob storage failure.
func StorageErrorf(err error, op string) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

// ProviderErrorf wraps an OCR provider failure (timeouts included).
func ProviderErrorf(err error, op string) error {
	return fmt.Errorf("%s: %w: %w", op, ErrProvider, err)
}

// WrapError adds message context while preserving the wrapped kind.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsKind reports whether err carries the given sentinel.
func IsKind(err, kind error) bool {
	return errors.Is(err, kind)
}
