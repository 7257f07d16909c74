package index

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/marketnews/store"
)

// ReindexConfig holds configuration for a reindexing run.
type ReindexConfig struct {
	// BatchSize is the number of articles processed per batch.
	BatchSize int

	// MaxRetries is the maximum number of attempts for each collection write.
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff.
	RetryDelay time.Duration
}

// DefaultReindexConfig returns a ReindexConfig with sensible defaults.
func DefaultReindexConfig() *ReindexConfig {
	return &ReindexConfig{
		BatchSize:  100,
		MaxRetries: 3,
		RetryDelay: 1 * time.Second,
	}
}

// Reindexer rebuilds the vector index from the durable store, re-embedding
// every stored article. Useful after switching embedding models, when every
// stored vector becomes incomparable with new queries.
type Reindexer struct {
	articles   store.ArticleStore
	collection Collection
	config     *ReindexConfig
	progress   io.Writer
}

// NewReindexer creates a reindexer.
// progress: where to write progress output (typically os.Stderr).
func NewReindexer(articles store.ArticleStore, collection Collection, config *ReindexConfig, progress io.Writer) (*Reindexer, error) {
	if articles == nil {
		return nil, ErrNilStore
	}
	if collection == nil {
		return nil, ErrNilCollection
	}
	if config == nil {
		config = DefaultReindexConfig()
	}
	if progress == nil {
		progress = io.Discard
	}
	return &Reindexer{
		articles:   articles,
		collection: collection,
		config:     config,
		progress:   progress,
	}, nil
}

// Run deletes and re-adds the documents of every stored article.
func (r *Reindexer) Run(ctx context.Context) error {
	articles, err := r.articles.Articles(ctx)
	if err != nil {
		return fmt.Errorf("failed to load articles: %w", err)
	}
	if len(articles) == 0 {
		fmt.Fprintf(r.progress, "No articles found in store (0 articles)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reindex of %d articles (batch size: %d)\n",
		len(articles), r.config.BatchSize)

	startTime := time.Now()
	processed := 0

	for start := 0; start < len(articles); start += r.config.BatchSize {
		end := start + r.config.BatchSize
		if end > len(articles) {
			end = len(articles)
		}
		batch := articles[start:end]

		for i := range batch {
			if _, err := r.collection.DeleteWhere(ctx, map[string]string{MetaArticleID: batch[i].UUID}); err != nil {
				return fmt.Errorf("failed to delete documents for %s: %w", batch[i].UUID, err)
			}
		}

		docs := dedupeByID(BuildDocuments(batch))
		err := RetryWithBackoff(ctx, func() error {
			return r.collection.Add(ctx, docs)
		}, r.config.MaxRetries, r.config.RetryDelay)
		if err != nil {
			return fmt.Errorf("failed to index batch after %d attempts: %w", r.config.MaxRetries, err)
		}

		processed += len(batch)
		fmt.Fprintf(r.progress, "Reindexed %d/%d articles\n", processed, len(articles))
	}

	elapsed := time.Since(startTime)
	fmt.Fprintf(r.progress, "Reindex complete. Processed %d articles in %v\n",
		processed, elapsed.Round(time.Second))
	return nil
}
