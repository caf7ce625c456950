package storage

import "errors"

// Sentinel errors for storage operations.
var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")

	// ErrConflict is returned when the username, email, or user key is
	// already taken.
	ErrConflict = errors.New("user already exists")
)
