package workerpool

import (
	"errors"
	"fmt"
)

var (
	// ErrFactoryRequired is returned when a pool is created without a model factory.
	ErrFactoryRequired = errors.New("model factory is required")

	// ErrInvalidWorldSize is returned when the world size is below 1.
	ErrInvalidWorldSize = errors.New("world size must be at least 1")

	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("pool already started")

	// ErrNotStarted is returned when a request is sent before Start.
	ErrNotStarted = errors.New("pool not started")

	// ErrClosed is returned when a request is sent after Shutdown or Close.
	ErrClosed = errors.New("pool closed")

	// ErrShutdownTimeout is returned when workers do not exit in time.
	ErrShutdownTimeout = errors.New("workers did not exit before timeout")

	// ErrNoResult is returned when the authoritative worker replied without an embedding.
	ErrNoResult = errors.New("authoritative worker returned no result")
)

// WorkerError is a structured failure reported by a worker.
// The worker stays alive after reporting it.
type WorkerError struct {
	Rank    int
	Message string
	Trace   string
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("worker %d: %s", e.Rank, e.Message)
}
