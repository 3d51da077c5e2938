package repositories

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("record already exists")
	// ErrVersionConflict is returned when an order changed between read and write.
	ErrVersionConflict = errors.New("record was modified by another request")
)
