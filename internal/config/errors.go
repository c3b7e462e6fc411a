package config

import "errors"

// Sentinel errors for the config package.
var (
	// ErrNotFound is returned when the config file does not exist.
	ErrNotFound = errors.New("config file not found")

	// ErrUnsupportedFormat is returned for unrecognized file extensions.
	ErrUnsupportedFormat = errors.New("unsupported config format")

	// ErrInvalidConfig is returned when a config fails validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnknownActionType is returned for unrecognized action types.
	ErrUnknownActionType = errors.New("unknown action type")
)
