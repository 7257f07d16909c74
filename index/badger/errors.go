package badger

import "errors"

var (
	// ErrNilEmbedder indicates a nil embedder was passed to a constructor.
	ErrNilEmbedder = errors.New("embedder is required")

	// ErrEmbeddingMismatch indicates the embedder returned a different
	// number of vectors than texts submitted.
	ErrEmbeddingMismatch = errors.New("embedding count does not match document count")
)
