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

package pipeline

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/poiesic/marketnews/core"
	"github.com/poiesic/marketnews/dedup"
	"github.com/poiesic/marketnews/feed"
	"github.com/poiesic/marketnews/index"
	"github.com/poiesic/marketnews/store"
)

// Gatherer fetches and expands articles. Satisfied by *feed.Gatherer.
type Gatherer interface {
	Gather(ctx context.Context, gctx feed.GatherContext) (feed.GatherResult, error)
}

// Indexer upserts articles into the vector index. Satisfied by *index.Indexer.
type Indexer interface {
	Index(ctx context.Context, articles []core.Article) (index.Stats, error)
}

// RunOptions parameterizes one ingest run.
type RunOptions struct {
	// Symbols to query, at least one required.
	Symbols []string

	// Days of history to sweep. Ignored when After or Before is set.
	Days int

	// After and Before select date-range mode (YYYY-MM-DD).
	After  string
	Before string

	// MaxPages bounds pages fetched per day or range sweep. Default 1.
	MaxPages int

	// StartPage is the first page number requested. Default 1.
	StartPage int

	// Timeout is an optional watchdog for the whole run. Zero disables it.
	Timeout time.Duration
}

// RunStats aggregates what one ingest run did across all stages.
type RunStats struct {
	Gather          feed.GatherStats
	Inserted        int
	StoreDuplicates int
	Index           index.Stats
	Duration        time.Duration
}

// Pipeline runs the full ingest sequence: read the seen-UUID set and
// blacklist from the store, gather and expand articles from the feed,
// canonicalize entity mentions, persist, and index. At most one run may be
// in flight per Pipeline; retrieval reads stay safe concurrently.
type Pipeline struct {
	gatherer     Gatherer
	deduplicator *dedup.Deduplicator
	articles     store.ArticleStore
	indexer      Indexer
	logger       *slog.Logger
	running      atomic.Bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a pipeline over the given stages.
func New(gatherer Gatherer, deduplicator *dedup.Deduplicator, articles store.ArticleStore, indexer Indexer, opts ...Option) (*Pipeline, error) {
	if gatherer == nil {
		return nil, ErrNilGatherer
	}
	if deduplicator == nil {
		return nil, ErrNilDeduplicator
	}
	if articles == nil {
		return nil, ErrNilStore
	}
	if indexer == nil {
		return nil, ErrNilIndexer
	}

	p := &Pipeline{
		gatherer:     gatherer,
		deduplicator: deduplicator,
		articles:     articles,
		indexer:      indexer,
		logger:       slog.Default().With("component", "pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Running reports whether an ingest run is currently in flight.
func (p *Pipeline) Running() bool {
	return p.running.Load()
}

// Run executes one ingest run. A second concurrent call returns
// ErrRunInFlight. Aggregate statistics are logged even when the run fails
// partway through.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (RunStats, error) {
	var stats RunStats
	if !p.running.CompareAndSwap(false, true) {
		return stats, ErrRunInFlight
	}
	defer p.running.Store(false)

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	logger := p.logger.With("run_id", uuid.NewString())
	logger.Info("ingest run starting", "symbols", opts.Symbols, "days", opts.Days)

	start := time.Now()
	defer func() {
		stats.Duration = time.Since(start)
		logger.Info("ingest run finished",
			"gathered", stats.Gather.Gathered,
			"inserted", stats.Inserted,
			"duplicates", stats.StoreDuplicates,
			"indexed", stats.Index.Added,
			"duration", stats.Duration)
	}()

	knownUUIDs, err := p.articles.UUIDs(ctx)
	if err != nil {
		logger.Error("failed to read seen UUIDs", "err", err)
		return stats, err
	}
	blacklist, err := p.articles.Blacklist(ctx)
	if err != nil {
		logger.Error("failed to read blacklist", "err", err)
		return stats, err
	}

	result, err := p.gatherer.Gather(ctx, feed.GatherContext{
		Symbols:    opts.Symbols,
		Days:       opts.Days,
		After:      opts.After,
		Before:     opts.Before,
		MaxPages:   opts.MaxPages,
		StartPage:  opts.StartPage,
		KnownUUIDs: toSet(knownUUIDs),
		Blacklist:  toSet(blacklist),
	})
	if err != nil {
		return stats, err
	}
	stats.Gather = result.Stats

	articles := result.Articles
	for i := range articles {
		if err := ctx.Err(); err != nil {
			logger.Info("run cancelled during canonicalization", "remaining", len(articles)-i)
			return stats, err
		}
		articles[i].Entities = p.deduplicator.Canonicalize(articles[i].Mentions)
		articles[i].Mentions = nil
	}

	added, err := p.articles.AddArticles(ctx, articles)
	if err != nil {
		logger.Error("failed to store articles", "err", err)
		return stats, err
	}
	stats.Inserted = added.Inserted
	stats.StoreDuplicates = added.Duplicates

	if len(result.FailedURLs) > 0 {
		if err := p.articles.AddToBlacklist(ctx, result.FailedURLs); err != nil {
			logger.Error("failed to persist blacklist entries", "err", err)
			return stats, err
		}
	}

	stats.Index, err = p.indexer.Index(ctx, articles)
	if err != nil {
		return stats, err
	}
	return stats, nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
