package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates embeddings for multiple texts in a batch.
	// The returned slice matches the order of the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Summary is the result of summarizing one article's raw text.
type Summary struct {
	// Summary is the compressed article text. Empty means the article
	// produced nothing worth keeping and should be dropped by the caller.
	Summary string

	// Keywords are salient terms extracted alongside the summary,
	// deduplicated, at most a handful.
	Keywords []string
}

// Summarizer compresses raw article text into a short summary plus keywords.
// Implementations call a language model and must be thread-safe; callers must
// not assume identical input yields identical output across calls.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (Summary, error)
}

// RankedPassage pairs one input passage with its relevance score for a query.
type RankedPassage struct {
	// Index is the position of the passage in the input slice.
	Index int

	// Score is the relevance of the passage to the query, higher is better.
	// Scores are comparable within one Rerank call only.
	Score float64
}

// Reranker scores passages against a query with a cross-encoder-style model.
// Implementations must be thread-safe for concurrent use.
type Reranker interface {
	// Rerank returns one RankedPassage per input passage, ordered by
	// descending score. Ties preserve input order.
	Rerank(ctx context.Context, query string, passages []string) ([]RankedPassage, error)
}

// Provider aggregates the AI services for convenient initialization and
// lifecycle management.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Summarizer returns the article summarization service.
	Summarizer() Summarizer

	// Reranker returns the passage reranking service.
	Reranker() Reranker

	// Close releases resources held by the provider and its services.
	Close() error
}
