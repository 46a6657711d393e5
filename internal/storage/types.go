package storage

import "errors"

var (
	// ErrNotFound indicates that the requested record was not found.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrWriteFailed indicates the backend rejected a batch write. The whole
	// batch fails together; retrying it is safe because writes are
	// idempotent by identifier.
	ErrWriteFailed = errors.New("store write failed")
)
