// Package errs defines the domain error vocabulary shared across bounded
// contexts.
package errs

import "errors"

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidInput is returned when input data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientStock is returned when a guarded stock deduction cannot
	// be satisfied in full.
	ErrInsufficientStock = errors.New("insufficient stock")
)
