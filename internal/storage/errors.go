package storage

import "errors"

var (
	// ErrNotFound is returned by reads for keys the index does not hold.
	ErrNotFound = errors.New("storage: not found")

	// ErrCursorConflict is returned by Commit when the stored sync cursor
	// does not match the mutation set's expected predecessor. The caller
	// re-reads the cursor and recomputes its plan.
	ErrCursorConflict = errors.New("storage: sync cursor conflict")
)
