package types

import "errors"

var (
	// ErrValidation marks malformed or insufficient input.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a missing model version or an empty result.
	ErrNotFound = errors.New("not found")
	// ErrConnectivity marks a dependency that could not be reached.
	ErrConnectivity = errors.New("dependency unreachable")
)
