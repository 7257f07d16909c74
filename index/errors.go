package index

import "errors"

var (
	// ErrNilCollection indicates a nil collection was passed to a constructor.
	ErrNilCollection = errors.New("collection is required")

	// ErrNilStore indicates a nil article store was passed to a constructor.
	ErrNilStore = errors.New("article store is required")

	// ErrInvalidMaxAttempts indicates maxAttempts was zero or negative.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)
