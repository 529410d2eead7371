package domain

import "errors"

var (
	// ErrJobNotFound is returned when the job named by an event no longer exists
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidPayload is returned when an event body cannot be decoded
	ErrInvalidPayload = errors.New("invalid event payload")

	// ErrDeliveriesClosed is returned when the broker closes the delivery
	// channel while the worker is still running
	ErrDeliveriesClosed = errors.New("delivery channel closed")
)

// RetryableError wraps transient errors that should trigger a requeue
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}
