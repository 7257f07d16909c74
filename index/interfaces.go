package index

import "context"

// Filter constrains a vector query. Metadata entries are matched by exact
// equality, ContainsText by substring presence in the document content.
// A zero Filter matches everything.
type Filter struct {
	Metadata     map[string]string
	ContainsText string
}

// Candidate is one vector search hit. Score is cosine similarity against the
// query embedding, higher is better.
type Candidate struct {
	Document string
	Metadata map[string]string
	Score    float64
}

// Collection is the vector-index backend contract. The indexer and retriever
// depend only on this shape.
type Collection interface {
	// Add embeds and stores documents. Callers are responsible for not
	// adding an id twice; Add overwrites silently if they do.
	Add(ctx context.Context, docs []Document) error

	// ExistingIDs reports which of the given ids are already stored.
	ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error)

	// Query returns up to n candidates nearest to the query text, most
	// similar first, optionally constrained by filter.
	Query(ctx context.Context, text string, n int, filter *Filter) ([]Candidate, error)

	// DeleteWhere removes every document whose metadata matches all given
	// entries. Returns the number of documents removed.
	DeleteWhere(ctx context.Context, metadata map[string]string) (int, error)

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// Close releases the underlying storage.
	Close() error
}
