// Package common defines sentinel errors shared across the raddo layers.
// Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Configuration errors are reported before any network activity.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrAborted means the operator declined a confirmation prompt.
	ErrAborted = errors.New("aborted by user")

	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
)
