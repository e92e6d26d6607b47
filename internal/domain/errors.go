// Package domain holds the lineage model: files, facts, the merged graph,
// analytics results, and the error kinds every outer layer maps from.
package domain

import "fmt"

// The four error kinds below are the only classification outer layers need:
// the API maps them to status codes and everything else becomes a 500.

// NotFoundError reports a file or graph resource the caller cannot see,
// whether missing or owned by someone else.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// AccessDeniedError reports a request the caller is not allowed to make.
type AccessDeniedError struct {
	Message string
}

func (e *AccessDeniedError) Error() string { return e.Message }

// ValidationError reports caller input that fails validation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError reports a write that collides with existing state, such as
// inserting a record that already exists.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// ErrNotFound builds a NotFoundError from a format string.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrAccessDenied builds an AccessDeniedError from a format string.
func ErrAccessDenied(format string, args ...interface{}) *AccessDeniedError {
	return &AccessDeniedError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation builds a ValidationError from a format string.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict builds a ConflictError from a format string.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}
