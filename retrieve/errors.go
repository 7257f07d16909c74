package retrieve

import "errors"

var (
	// ErrNilCollection indicates a nil collection was passed to a constructor.
	ErrNilCollection = errors.New("collection is required")

	// ErrNilReranker indicates a nil reranker was passed to a constructor.
	ErrNilReranker = errors.New("reranker is required")
)
