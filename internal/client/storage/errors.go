package storage

import "errors"

// Common client storage errors
var (
	// ErrSessionNotFound indicates that no session data exists
	ErrSessionNotFound = errors.New("session data not found")

	// ErrShareNotFound indicates that share was not found in the cache
	ErrShareNotFound = errors.New("share not found")

	// ErrShareKeyNotFound indicates that no share key exists for the requested share/rotation
	ErrShareKeyNotFound = errors.New("share key not found")

	// ErrItemNotFound indicates that item was not found in the cache
	ErrItemNotFound = errors.New("item not found")

	// ErrNoSelectedShare indicates that the user has no selected vault
	ErrNoSelectedShare = errors.New("no selected share")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
