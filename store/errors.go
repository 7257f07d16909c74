package store

import "errors"

var (
	// ErrEmptyPath indicates no database path was provided.
	ErrEmptyPath = errors.New("store: database path cannot be empty")

	// ErrClosed indicates an operation on a closed store.
	ErrClosed = errors.New("store: store is closed")
)
