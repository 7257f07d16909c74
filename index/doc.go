// Package index derives retrieval documents from articles and maintains the
// vector index through a backend-agnostic Collection contract. Indexing is
// idempotent: document ids are content-derived and existing ids are filtered
// out before every write.
package index
