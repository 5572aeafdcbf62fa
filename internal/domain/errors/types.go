package errors

import (
	"errors"
	"fmt"
	"strings"
)

// AppError is the base application error carrying a stable code for the API.
type AppError struct {
	Err  error
	Msg  string
	Code string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *AppError) Unwrap() error { return e.Err }

const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeForbidden         = "FORBIDDEN"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeInternal          = "INTERNAL_ERROR"
)

// ValidationError aggregates every violated constraint of one construction or
// check into a single error instead of failing on the first.
type ValidationError struct {
	AppError
	Violations []string
}

type NotFoundError struct{ AppError }
type ConflictError struct{ AppError }
type ForbiddenError struct{ AppError }
type InvalidTransitionError struct{ AppError }
type InternalError struct{ AppError }

// NewValidationError builds a ValidationError from the full violation list.
func NewValidationError(subject string, violations []string) *ValidationError {
	return &ValidationError{
		AppError: AppError{
			Msg:  fmt.Sprintf("%s validation failed: %s", subject, strings.Join(violations, "; ")),
			Code: CodeValidation,
		},
		Violations: violations,
	}
}

func NewNotFoundError(msg string, err error) *NotFoundError {
	return &NotFoundError{AppError{Err: err, Msg: msg, Code: CodeNotFound}}
}

func NewConflictError(msg string, err error) *ConflictError {
	return &ConflictError{AppError{Err: err, Msg: msg, Code: CodeConflict}}
}

func NewForbiddenError(msg string, err error) *ForbiddenError {
	return &ForbiddenError{AppError{Err: err, Msg: msg, Code: CodeForbidden}}
}

func NewInvalidTransitionError(msg string, err error) *InvalidTransitionError {
	return &InvalidTransitionError{AppError{Err: err, Msg: msg, Code: CodeInvalidTransition}}
}

func NewInternalError(msg string, err error) *InternalError {
	return &InternalError{AppError{Err: err, Msg: msg, Code: CodeInternal}}
}

// AsValidationError unwraps err into a ValidationError if one is in the chain.
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

// CodeOf maps any error to its stable API code.
func CodeOf(err error) string {
	switch {
	case IsValidation(err) || IsBadRequest(err):
		return CodeValidation
	case IsNotFound(err):
		return CodeNotFound
	case IsConflict(err):
		return CodeConflict
	case IsForbidden(err):
		return CodeForbidden
	case IsInvalidTransition(err):
		return CodeInvalidTransition
	default:
		return CodeInternal
	}
}
