// Package apperror defines the error values shared by every layer of hypot.
//
// There are two tiers:
//   - Categories (ErrNotFound, ErrConflict, ...) are what repositories report.
//     They say what went wrong with a record, not what it means to a caller.
//   - Codes (CodeUserExists, CodePropertyNotFound, ...) are what services
//     report. They are the numeric codes of the public result envelope and
//     must never be renumbered.
//
// Both tiers travel inside *AppError, so errors.Is works on the category
// and CodeOf works on the code.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
)

type AppError struct {
	Err     error  // category sentinel
	Code    Code   // envelope code; CodeInternal for repository-level errors
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// ConflictOn reports a uniqueness violation on a specific field, e.g. a
// second user with the same username. Field lets callers tell an id
// collision (retry with a new id) from a taken natural key.
func ConflictOn(resource, field, value string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict on %s %s", resource, field, value),
		Field:   field,
	}
}

// IsConflictOn reports whether err is a conflict on the given field.
func IsConflictOn(err error, field string) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return errors.Is(appErr.Err, ErrConflict) && appErr.Field == field
}
