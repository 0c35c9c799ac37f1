package storage

import "errors"

// Common client storage errors
var (
	// ErrKeyNotFound indicates that the key has no stored value
	ErrKeyNotFound = errors.New("key not found")

	// ErrQuotaExceeded indicates that a write would exceed the storage quota.
	// Previously stored values are left untouched.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
