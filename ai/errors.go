package ai

import "errors"

var (
	// ErrEmptyInput is returned when an input has no text and no media.
	ErrEmptyInput = errors.New("input has no text or media")

	// ErrUnsupportedInput is returned by models that cannot handle a modality.
	ErrUnsupportedInput = errors.New("input modality not supported by model")

	// ErrInvalidConfig is returned when a Config fails validation.
	ErrInvalidConfig = errors.New("invalid ai config")
)
