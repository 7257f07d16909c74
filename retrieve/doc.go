// Package retrieve implements staged semantic search over the vector index:
// nearest-neighbor candidate fetch, recency filtering, and cross-encoder
// reranking with a threshold-and-fallback policy.
package retrieve
