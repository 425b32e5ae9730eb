package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrStatusConflict means a compare-and-swap status update lost to a
	// concurrent writer (or the task vanished).
	ErrStatusConflict = errors.New("status changed concurrently")
)
