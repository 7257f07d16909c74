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

package marketnews

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/poiesic/marketnews/ai"
	"github.com/poiesic/marketnews/ai/openai"
	"github.com/poiesic/marketnews/config"
	"github.com/poiesic/marketnews/dedup"
	"github.com/poiesic/marketnews/feed"
	"github.com/poiesic/marketnews/index"
	indexbadger "github.com/poiesic/marketnews/index/badger"
	"github.com/poiesic/marketnews/pipeline"
	"github.com/poiesic/marketnews/retrieve"
	"github.com/poiesic/marketnews/scrape"
	"github.com/poiesic/marketnews/store"
	"github.com/poiesic/marketnews/store/sqlite"
)

// Service is the root facade: it owns the durable store, the vector
// collection, the model provider, and the ingest pipeline, and exposes the
// operations the CLI and embedding applications need.
type Service struct {
	cfg        config.Config
	provider   ai.Provider
	articles   store.ArticleStore
	collection *indexbadger.Collection
	indexer    *index.Indexer
	retriever  *retrieve.Retriever
	pipeline   *pipeline.Pipeline
	dispatcher *pipeline.Dispatcher
	logger     *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	provider ai.Provider
	logger   *slog.Logger
}

// WithProvider substitutes the model provider, mainly for tests.
func WithProvider(provider ai.Provider) ServiceOption {
	return func(o *serviceOptions) {
		o.provider = provider
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewService wires every component from the configuration.
func NewService(cfg config.Config, opts ...ServiceOption) (*Service, error) {
	options := &serviceOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger

	provider := options.provider
	if provider == nil {
		aiConfig := ai.NewConfig(
			ai.WithEmbeddingHost(cfg.AI.EmbeddingHost),
			ai.WithChatHost(cfg.AI.ChatHost),
			ai.WithEmbeddingModel(cfg.AI.EmbeddingModel),
			ai.WithChatModel(cfg.AI.ChatModel),
			ai.WithSummaryMaxWords(cfg.AI.SummaryMaxWords),
		)
		var err error
		provider, err = openai.NewProvider(aiConfig)
		if err != nil {
			return nil, err
		}
	}

	articles, err := sqlite.New(cfg.Store.Path, sqlite.WithLogger(logger))
	if err != nil {
		provider.Close()
		return nil, err
	}

	collection, err := indexbadger.NewCollection(cfg.Index.Path, provider.Embedder(),
		indexbadger.WithLogger(logger))
	if err != nil {
		articles.Close()
		provider.Close()
		return nil, err
	}

	indexer, err := index.NewIndexer(collection, index.WithIndexerLogger(logger))
	if err != nil {
		collection.Close()
		articles.Close()
		provider.Close()
		return nil, err
	}

	retriever, err := retrieve.NewRetriever(collection, provider.Reranker(),
		retrieve.WithNResults(cfg.Retrieve.NResults),
		retrieve.WithRecencyMonths(cfg.Retrieve.RecencyMonths),
		retrieve.WithScoreThreshold(cfg.Retrieve.ScoreThreshold),
		retrieve.WithLogger(logger))
	if err != nil {
		collection.Close()
		articles.Close()
		provider.Close()
		return nil, err
	}

	scraper, err := scrape.NewScraper(provider.Summarizer(),
		scrape.WithGuard(scrape.NewRobotsGuard(scrape.WithRobotsLogger(logger))),
		scrape.WithDelayRange(cfg.Scrape.MinDelay(), cfg.Scrape.MaxDelay()),
		scrape.WithMaxRetries(cfg.Scrape.MaxRetries),
		scrape.WithLogger(logger))
	if err != nil {
		collection.Close()
		articles.Close()
		provider.Close()
		return nil, err
	}

	client := feed.NewClient(cfg.Feed.BaseURL, cfg.Feed.APIToken,
		feed.WithLanguage(cfg.Feed.Language),
		feed.WithPageSize(cfg.Feed.PageSize),
		feed.WithClientLogger(logger))

	gatherer, err := feed.NewGatherer(client, scraper, feed.WithGathererLogger(logger))
	if err != nil {
		collection.Close()
		articles.Close()
		provider.Close()
		return nil, err
	}

	pipe, err := pipeline.New(gatherer, dedup.New(dedup.WithLogger(logger)), articles, indexer,
		pipeline.WithLogger(logger))
	if err != nil {
		collection.Close()
		articles.Close()
		provider.Close()
		return nil, err
	}

	dispatcher, err := pipeline.NewDispatcher(pipe, logger)
	if err != nil {
		collection.Close()
		articles.Close()
		provider.Close()
		return nil, err
	}

	return &Service{
		cfg:        cfg,
		provider:   provider,
		articles:   articles,
		collection: collection,
		indexer:    indexer,
		retriever:  retriever,
		pipeline:   pipe,
		dispatcher: dispatcher,
		logger:     logger,
	}, nil
}

// Close releases every component. Safe to call once.
func (s *Service) Close() error {
	s.dispatcher.Close()

	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing model provider", "err", err)
	}
	if err := s.collection.Close(); err != nil {
		s.logger.Error("error closing vector collection", "err", err)
		return err
	}
	if err := s.articles.Close(); err != nil {
		s.logger.Error("error closing article store", "err", err)
		return err
	}
	return nil
}

// Articles exposes the durable store for maintenance operations.
func (s *Service) Articles() store.ArticleStore {
	return s.articles
}

// Ingest runs one synchronous ingest run.
func (s *Service) Ingest(ctx context.Context, opts pipeline.RunOptions) (pipeline.RunStats, error) {
	return s.pipeline.Run(ctx, opts)
}

// IngestAsync schedules an ingest run off the caller's goroutine. Retrieval
// stays available while it runs.
func (s *Service) IngestAsync(ctx context.Context, opts pipeline.RunOptions) error {
	return s.dispatcher.Submit(ctx, opts)
}

// Ingesting reports whether an ingest run is in flight.
func (s *Service) Ingesting() bool {
	return s.pipeline.Running()
}

// Search answers a free-text query against the vector index.
func (s *Service) Search(ctx context.Context, query string, topN int) ([]retrieve.Result, error) {
	return s.retriever.Search(ctx, query, topN, nil)
}

// SearchEntity answers a query restricted to one entity's documents.
func (s *Service) SearchEntity(ctx context.Context, query, entityName string, topN int) ([]retrieve.Result, error) {
	return s.retriever.Search(ctx, query, topN, &index.Filter{
		Metadata: map[string]string{index.MetaEntityName: entityName},
	})
}

// Export writes stored articles as indented JSON. limit 0 means all.
func (s *Service) Export(ctx context.Context, w io.Writer, limit int) (int, error) {
	return s.articles.ExportJSON(ctx, w, limit)
}

// LastUpdated returns the human-formatted time of the last ingest, or ""
// when nothing was ever ingested.
func (s *Service) LastUpdated(ctx context.Context) (string, error) {
	return s.articles.LastUpdated(ctx)
}

// ClearBlacklist wipes the persisted scrape blacklist.
func (s *Service) ClearBlacklist(ctx context.Context) error {
	return s.articles.ClearBlacklist(ctx)
}

// DeleteArticle removes one article from the store and every document
// derived from it in the vector index. Returns how many store rows and
// index documents were removed.
func (s *Service) DeleteArticle(ctx context.Context, uuid string) (int64, int, error) {
	rows, err := s.articles.DeleteByUUID(ctx, uuid)
	if err != nil {
		return 0, 0, err
	}
	docs, err := s.collection.DeleteWhere(ctx, map[string]string{index.MetaArticleID: uuid})
	if err != nil {
		return rows, 0, err
	}
	return rows, docs, nil
}

// DeleteByDescriptionMatch removes every article whose description contains
// the substring, from the store and the index both. The store scan identifies
// which index documents belong to the doomed rows; matching is
// case-insensitive like the store's LIKE clause.
func (s *Service) DeleteByDescriptionMatch(ctx context.Context, substring string) (int64, error) {
	stored, err := s.articles.Articles(ctx)
	if err != nil {
		return 0, err
	}

	needle := strings.ToLower(substring)
	for i := range stored {
		if !strings.Contains(strings.ToLower(stored[i].Description), needle) {
			continue
		}
		if _, err := s.collection.DeleteWhere(ctx, map[string]string{index.MetaArticleID: stored[i].UUID}); err != nil {
			return 0, err
		}
	}
	return s.articles.DeleteByDescriptionMatch(ctx, substring)
}

// Reindex rebuilds the vector index from the durable store, re-embedding
// every article. progress may be nil.
func (s *Service) Reindex(ctx context.Context, progress io.Writer) error {
	r, err := index.NewReindexer(s.articles, s.collection, nil, progress)
	if err != nil {
		return err
	}
	return r.Run(ctx)
}
