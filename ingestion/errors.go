package ingestion

import "errors"

var (
	// ErrRepositoryRequired is returned when a repository is not provided.
	ErrRepositoryRequired = errors.New("embedding repository required")

	// ErrCallerRequired is returned when a remote caller is not provided.
	ErrCallerRequired = errors.New("remote caller required")

	// ErrSinkRequired is returned when a batch writer has no sink.
	ErrSinkRequired = errors.New("sink required")

	// ErrSourceRequired is returned when Run is called without a source.
	ErrSourceRequired = errors.New("source required")

	// ErrInvalidBatchSize is returned when the batch size is below 1.
	ErrInvalidBatchSize = errors.New("batch size must be greater than 0")

	// ErrInvalidConcurrency is returned when concurrency is below 1.
	ErrInvalidConcurrency = errors.New("concurrency must be greater than 0")

	// ErrFlushFailed wraps a storage error from a batch insert.
	ErrFlushFailed = errors.New("batch flush failed")

	// ErrEnumeration is returned when a source cannot produce its work items.
	// It aborts the run.
	ErrEnumeration = errors.New("enumeration failed")

	// ErrStorage is returned when the store cannot be reached.
	// It aborts the run.
	ErrStorage = errors.New("storage unavailable")
)
