// Package apperror defines the domain errors shared by services, repositories
// and the authorization pipeline.
//
// Every typed error wraps one sentinel, so callers branch with errors.Is and
// read the human-readable text with errors.As:
//
//	if errors.Is(err, apperror.ErrNotFound) { ... }
//
// The HTTP layer (handler/response.go) is the only place that maps these
// sentinels to status codes.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// AppError is a sentinel plus the message shown to the client.
type AppError struct {
	Err     error  // one of the sentinels above
	Message string // safe to return in the response body
	Field   string // request field at fault, validation only
}

func (e *AppError) Error() string { return e.Message }

func (e *AppError) Unwrap() error { return e.Err }

func newError(sentinel error, message string) *AppError {
	return &AppError{Err: sentinel, Message: message}
}

func NotFound(resource, id string) *AppError {
	return newError(ErrNotFound, fmt.Sprintf("%s not found with id %s", resource, id))
}

// NotFoundBy reports a lookup by a field other than the ID.
func NotFoundBy(resource, field, value string) *AppError {
	return newError(ErrNotFound, fmt.Sprintf("%s not found with %s %s", resource, field, value))
}

func ValidationFailed(field, message string) *AppError {
	e := newError(ErrValidation, message)
	e.Field = field
	return e
}

// Required is the validation error for a missing or blank field.
func Required(field string) *AppError {
	return ValidationFailed(field, field+" is required")
}

// Forbidden: authenticated, but the role or ownership rule says no. 403.
func Forbidden(message string) *AppError {
	return newError(ErrForbidden, message)
}

// Unauthorized: no identity, or one that failed verification. 401.
func Unauthorized(message string) *AppError {
	return newError(ErrUnauthorized, message)
}
