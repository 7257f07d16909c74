// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package index

import (
	"context"
	"log/slog"

	"github.com/poiesic/marketnews/core"
)

const defaultAddBatchSize = 100

// Stats summarizes one indexing run.
type Stats struct {
	// Articles is the number of input articles.
	Articles int

	// Added is the number of documents newly written to the collection.
	Added int

	// Duplicates is the number of candidate documents skipped because
	// their id was already indexed.
	Duplicates int
}

// Indexer derives documents from articles and upserts them into a
// collection without ever duplicating an id, so indexing the same articles
// twice is a no-op the second time.
type Indexer struct {
	collection Collection
	batchSize  int
	logger     *slog.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithBatchSize sets how many documents are written per collection call.
func WithBatchSize(n int) IndexerOption {
	return func(ix *Indexer) {
		if n > 0 {
			ix.batchSize = n
		}
	}
}

// WithIndexerLogger sets the logger.
func WithIndexerLogger(logger *slog.Logger) IndexerOption {
	return func(ix *Indexer) {
		if logger != nil {
			ix.logger = logger
		}
	}
}

// NewIndexer creates an indexer writing to the given collection.
func NewIndexer(collection Collection, opts ...IndexerOption) (*Indexer, error) {
	if collection == nil {
		return nil, ErrNilCollection
	}
	ix := &Indexer{
		collection: collection,
		batchSize:  defaultAddBatchSize,
		logger:     slog.Default().With("component", "indexer"),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix, nil
}

// Index derives documents from the articles and adds the ones not yet
// present. Statistics are logged once per call.
func (ix *Indexer) Index(ctx context.Context, articles []core.Article) (Stats, error) {
	stats := Stats{Articles: len(articles)}
	if len(articles) == 0 {
		return stats, nil
	}

	docs := dedupeByID(BuildDocuments(articles))

	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
	}
	existing, err := ix.collection.ExistingIDs(ctx, ids)
	if err != nil {
		ix.logger.Error("failed to check existing documents", "err", err)
		return stats, err
	}

	fresh := docs[:0]
	for _, doc := range docs {
		if _, ok := existing[doc.ID]; ok {
			stats.Duplicates++
			continue
		}
		fresh = append(fresh, doc)
	}

	for start := 0; start < len(fresh); start += ix.batchSize {
		end := start + ix.batchSize
		if end > len(fresh) {
			end = len(fresh)
		}
		if err := ix.collection.Add(ctx, fresh[start:end]); err != nil {
			ix.logger.Error("batch indexing failed", "err", err)
			return stats, err
		}
		stats.Added += end - start
	}

	ix.logger.Info("indexing complete",
		"articles", stats.Articles,
		"added", stats.Added,
		"duplicates", stats.Duplicates)
	return stats, nil
}

// dedupeByID drops later documents that repeat an earlier id, keeping input
// order. The same id can be derived twice in one call when a feed repeats an
// article across pages.
func dedupeByID(docs []Document) []Document {
	seen := make(map[string]struct{}, len(docs))
	unique := docs[:0]
	for _, doc := range docs {
		if _, ok := seen[doc.ID]; ok {
			continue
		}
		seen[doc.ID] = struct{}{}
		unique = append(unique, doc)
	}
	return unique
}
