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

package badger

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"

	"github.com/poiesic/marketnews/ai"
	"github.com/poiesic/marketnews/index"
)

// storedDocument is the on-disk form of one index document. The vector is
// stored unit-normalized so query-time similarity is a plain dot product.
type storedDocument struct {
	ID       string            `cbor:"1,keyasint"`
	Content  string            `cbor:"2,keyasint"`
	Metadata map[string]string `cbor:"3,keyasint"`
	Vector   []float32         `cbor:"4,keyasint"`
}

// Collection is a BadgerDB-backed vector collection. Documents are embedded
// on add and queries are answered by a full cosine-similarity scan, which is
// adequate for the collection sizes a single news pipeline produces.
type Collection struct {
	db       *badger.DB
	embedder ai.Embedder
	logger   *slog.Logger
}

var _ index.Collection = (*Collection)(nil)

// Option configures a Collection.
type Option func(*Collection)

// WithLogger sets the logger, also used for badger's internal logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collection) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCollection opens a collection at the given directory path, creating it
// if needed.
func NewCollection(path string, embedder ai.Embedder, opts ...Option) (*Collection, error) {
	return openCollection(path, false, embedder, opts...)
}

func openCollection(path string, inMemory bool, embedder ai.Embedder, opts ...Option) (*Collection, error) {
	if embedder == nil {
		return nil, ErrNilEmbedder
	}

	c := &Collection{
		embedder: embedder,
		logger:   slog.Default().With("component", "vector-collection"),
	}
	for _, opt := range opts {
		opt(c)
	}

	db, err := openBackend(path, inMemory, c.logger)
	if err != nil {
		return nil, err
	}
	c.db = db
	return c, nil
}

// Close closes the underlying database.
func (c *Collection) Close() error {
	return c.db.Close()
}

// withTx executes a function within a BadgerDB transaction.
// The transaction is automatically discarded if fn returns an error.
func (c *Collection) withTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	tx := c.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// Add embeds the documents and writes them in one transaction. An existing
// id is overwritten.
func (c *Collection) Add(ctx context.Context, docs []index.Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}

	vectors, err := c.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		c.logger.Error("error generating embeddings", "err", err)
		return err
	}
	if len(vectors) != len(docs) {
		return ErrEmbeddingMismatch
	}

	return c.withTx(func(tx *badger.Txn) error {
		for i, doc := range docs {
			record := storedDocument{
				ID:       doc.ID,
				Content:  doc.Content,
				Metadata: doc.Metadata,
				Vector:   normalizeVector(vectors[i]),
			}
			value, err := cbor.Marshal(&record)
			if err != nil {
				return err
			}
			if err := tx.Set(makeDocKey(doc.ID), value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// ExistingIDs reports which of the given ids are already stored.
func (c *Collection) ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(ids))
	err := c.withTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			_, err := tx.Get(makeDocKey(id))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			existing[id] = struct{}{}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return existing, nil
}

// Query embeds the query text and scans all documents for the n most similar
// ones passing the filter.
func (c *Collection) Query(ctx context.Context, text string, n int, filter *index.Filter) ([]index.Candidate, error) {
	if n <= 0 {
		return nil, nil
	}

	queryVector, err := c.embedder.EmbedText(ctx, text)
	if err != nil {
		c.logger.Error("error embedding query", "err", err)
		return nil, err
	}
	queryVector = normalizeVector(queryVector)

	var candidates []index.Candidate
	err = c.scanDocuments(func(record *storedDocument) error {
		if !matchesFilter(record, filter) {
			return nil
		}
		candidates = append(candidates, index.Candidate{
			Document: record.Content,
			Metadata: record.Metadata,
			Score:    float64(dotProduct(queryVector, record.Vector)),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortStableFunc(candidates, func(a, b index.Candidate) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates, nil
}

// DeleteWhere removes every document whose metadata matches all entries.
func (c *Collection) DeleteWhere(ctx context.Context, metadata map[string]string) (int, error) {
	var keys [][]byte
	err := c.scanDocuments(func(record *storedDocument) error {
		for k, v := range metadata {
			if record.Metadata[k] != v {
				return nil
			}
		}
		keys = append(keys, makeDocKey(record.ID))
		return nil
	})
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}

	err = c.withTx(func(tx *badger.Txn) error {
		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Count returns the number of stored documents.
func (c *Collection) Count(ctx context.Context) (int, error) {
	count := 0
	err := c.withTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(docPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// scanDocuments iterates every stored document in one read transaction.
func (c *Collection) scanDocuments(fn func(record *storedDocument) error) error {
	return c.withTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(docPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record storedDocument
			err := iter.Item().Value(func(val []byte) error {
				return cbor.Unmarshal(val, &record)
			})
			if err != nil {
				return err
			}
			if err := fn(&record); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

func matchesFilter(record *storedDocument, filter *index.Filter) bool {
	if filter == nil {
		return true
	}
	for k, v := range filter.Metadata {
		if record.Metadata[k] != v {
			return false
		}
	}
	if filter.ContainsText != "" && !strings.Contains(record.Content, filter.ContainsText) {
		return false
	}
	return true
}
