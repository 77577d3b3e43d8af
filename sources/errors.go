package sources

import "errors"

var (
	// ErrNoFiles is returned when a file pattern matches nothing.
	ErrNoFiles = errors.New("no files match pattern")

	// ErrDecode is returned when a dataset file cannot be parsed.
	ErrDecode = errors.New("failed to decode dataset")

	// ErrEmptyURL marks a row without a media URL.
	ErrEmptyURL = errors.New("row has no media URL")

	// ErrEmptyText marks a row without caption text.
	ErrEmptyText = errors.New("row has no text")

	// ErrNotCompleted marks a generation row that did not complete.
	ErrNotCompleted = errors.New("generation not completed")

	// ErrPlatformMismatch marks a row excluded by the platform filter.
	ErrPlatformMismatch = errors.New("platform filtered out")

	// ErrUnknownMediaType marks a URL whose extension is neither image nor video.
	ErrUnknownMediaType = errors.New("unknown media type")

	// ErrFilteredOut marks a row excluded by a source filter (duration, score, kind).
	ErrFilteredOut = errors.New("filtered out")
)
