package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrEndpointRequired is returned when no endpoint URL is configured.
	ErrEndpointRequired = errors.New("endpoint required")

	// ErrClientRequired is returned when a retrying client has nothing to wrap.
	ErrClientRequired = errors.New("client required")

	// ErrPoisoned marks a response whose payload is recognizably broken.
	// Retrying would fetch the same broken data.
	ErrPoisoned = errors.New("poisoned response")

	// ErrEmptyEmbedding is returned when a 200 response carries no vector.
	ErrEmptyEmbedding = errors.New("empty embedding in response")

	// ErrDimensionMismatch is returned when the vector length differs from
	// the configured dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Body markers that identify a poisoned 5xx response.
var poisonMarkers = []string{"429", "Invalid data found"}

// StatusError is returned for any non-200 response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("embed endpoint returned %d: %s", e.Code, truncate(e.Body, 200))
}

// permanentError wraps an error that must not be retried.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as unretryable for RetryWithBackoff.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// permanentCause returns the error marked by Permanent anywhere in err's
// chain, or nil when err is retryable.
func permanentCause(err error) error {
	var p *permanentError
	if errors.As(err, &p) {
		return p.err
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
