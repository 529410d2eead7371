package domain

import (
	"errors"
	"strings"
)

var (
	ErrJobNotFound      = errors.New("job not found")
	ErrWorkflowNotFound = errors.New("workflow not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrNoJobTypes       = errors.New("no job types found")

	// ErrValidation is the parent of every *ValidationError
	ErrValidation = errors.New("validation failed")

	// ErrInvalidStatus is returned for a status outside the job status enum
	ErrInvalidStatus = errors.New("invalid job status")

	// ErrInvalidReference is returned when a foreign ID does not resolve
	ErrInvalidReference = errors.New("invalid reference")

	// ErrTransitionNotAllowed is returned by the strict transition policy
	ErrTransitionNotAllowed = errors.New("status transition not allowed")

	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("you are not allowed to perform this request")
)

// ValidationError carries one message per offending field
type ValidationError struct {
	Fields []string
}

// NewValidationError builds a ValidationError from field messages
func NewValidationError(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	return strings.Join(e.Fields, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
