package store

import "errors"

// Predefined errors for the store layer.
var (
	// ErrNotFound indicates that a requested resource was not found, or that
	// it exists outside the caller's project.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates a uniqueness violation.
	ErrConflict = errors.New("conflict")
)
