package repository

import "errors"

var (
	// ErrNotFound is returned when a requested resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrPersistence is returned when a write could not be stored
	ErrPersistence = errors.New("persistence failure")

	// ErrDuplicateRecord is returned when attempting to create a record that violates a unique constraint
	ErrDuplicateRecord = errors.New("duplicate record")
)
