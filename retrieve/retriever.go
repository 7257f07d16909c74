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

package retrieve

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/marketnews/ai"
	"github.com/poiesic/marketnews/core"
	"github.com/poiesic/marketnews/index"
)

const (
	defaultNResults       = 50
	defaultRecencyMonths  = 6
	defaultScoreThreshold = 0.75
)

// Result is one retrieval hit after reranking. RetrieverScore is the vector
// similarity from stage one, RerankerScore the cross-encoder relevance from
// stage three; the final ordering follows RerankerScore.
type Result struct {
	Document       string
	Metadata       map[string]string
	RetrieverScore float64
	RerankerScore  float64
}

// Retriever answers free-text queries in three stages: vector search over
// the collection, a recency filter on published_at, and a reranking pass
// that keeps only candidates scoring at or above a threshold. If the
// threshold would eliminate everything, the single best candidate is kept so
// a query never comes back empty solely because the bar was set too high.
type Retriever struct {
	collection index.Collection
	reranker   ai.Reranker

	nResults      int
	recencyMonths int
	threshold     float64

	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithNResults sets how many candidates stage one fetches from the index.
func WithNResults(n int) Option {
	return func(r *Retriever) {
		if n > 0 {
			r.nResults = n
		}
	}
}

// WithRecencyMonths sets the recency window. A month counts as 30 days.
func WithRecencyMonths(months int) Option {
	return func(r *Retriever) {
		if months > 0 {
			r.recencyMonths = months
		}
	}
}

// WithScoreThreshold sets the minimum reranker score to keep a candidate.
func WithScoreThreshold(threshold float64) Option {
	return func(r *Retriever) {
		r.threshold = threshold
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithNowFunc overrides the clock used by the recency filter.
func WithNowFunc(now func() time.Time) Option {
	return func(r *Retriever) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRetriever creates a retriever over the given collection and reranker.
func NewRetriever(collection index.Collection, reranker ai.Reranker, opts ...Option) (*Retriever, error) {
	if collection == nil {
		return nil, ErrNilCollection
	}
	if reranker == nil {
		return nil, ErrNilReranker
	}
	r := &Retriever{
		collection:    collection,
		reranker:      reranker,
		nResults:      defaultNResults,
		recencyMonths: defaultRecencyMonths,
		threshold:     defaultScoreThreshold,
		logger:        slog.Default().With("component", "retriever"),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Search returns up to topN results for the query, best first. topN <= 0
// means no cap. Collection errors propagate; reranker failures degrade to an
// empty result.
func (r *Retriever) Search(ctx context.Context, query string, topN int, filter *index.Filter) ([]Result, error) {
	candidates, err := r.collection.Query(ctx, query, r.nResults, filter)
	if err != nil {
		r.logger.Error("vector query failed", "err", err)
		return nil, err
	}

	recent := r.filterByDate(candidates)
	if len(recent) == 0 {
		r.logger.Debug("no candidates within recency window", "query", query, "candidates", len(candidates))
		return nil, nil
	}

	passages := make([]string, len(recent))
	for i, c := range recent {
		passages[i] = c.Document
	}

	ranked, err := r.reranker.Rerank(ctx, query, passages)
	if err != nil {
		r.logger.Error("reranking failed", "err", err)
		return nil, nil
	}

	kept := ranked[:0]
	for _, rp := range ranked {
		if rp.Score >= r.threshold {
			kept = append(kept, rp)
		}
	}
	if len(kept) == 0 && len(ranked) > 0 {
		// Reranker output is ordered best first.
		kept = ranked[:1]
		r.logger.Debug("all scores below threshold, keeping best candidate",
			"score", kept[0].Score, "threshold", r.threshold)
	}
	if topN > 0 && len(kept) > topN {
		kept = kept[:topN]
	}

	results := make([]Result, len(kept))
	for i, rp := range kept {
		c := recent[rp.Index]
		results[i] = Result{
			Document:       c.Document,
			Metadata:       c.Metadata,
			RetrieverScore: c.Score,
			RerankerScore:  rp.Score,
		}
	}
	return results, nil
}

// filterByDate drops candidates whose published_at is missing, unparseable,
// or older than the recency window.
func (r *Retriever) filterByDate(candidates []index.Candidate) []index.Candidate {
	cutoff := r.now().UTC().Add(-time.Duration(30*r.recencyMonths) * 24 * time.Hour)

	filtered := candidates[:0]
	for _, c := range candidates {
		publishedAt := c.Metadata[index.MetaPublishedAt]
		if publishedAt == "" {
			continue
		}
		parsed, err := core.ParsePublishedAt(publishedAt)
		if err != nil {
			r.logger.Debug("failed to parse published_at", "value", publishedAt)
			continue
		}
		if parsed.Before(cutoff) {
			continue
		}
		filtered = append(filtered, c)
	}
	return filtered
}
