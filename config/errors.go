package config

import "errors"

var (
	// ErrMissingRequired is returned when a required variable is unset.
	ErrMissingRequired = errors.New("missing required configuration")

	// ErrInvalidValue is returned when a variable holds an unusable value.
	ErrInvalidValue = errors.New("invalid configuration value")
)
