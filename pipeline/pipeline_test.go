package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/marketnews/ai/mock"
	"github.com/poiesic/marketnews/core"
	"github.com/poiesic/marketnews/dedup"
	"github.com/poiesic/marketnews/feed"
	"github.com/poiesic/marketnews/index"
	indexbadger "github.com/poiesic/marketnews/index/badger"
	"github.com/poiesic/marketnews/store"
	"github.com/poiesic/marketnews/store/sqlite"
)

type stubGatherer struct {
	gatherFunc func(ctx context.Context, gctx feed.GatherContext) (feed.GatherResult, error)
}

func (s *stubGatherer) Gather(ctx context.Context, gctx feed.GatherContext) (feed.GatherResult, error) {
	return s.gatherFunc(ctx, gctx)
}

func gatheredArticle(uuid string, mentions ...core.Mention) core.Article {
	return core.Article{
		UUID:        uuid,
		Title:       "Title " + uuid,
		Description: "Summary " + uuid + "\nKeywords: markets",
		URL:         "https://news.example/" + uuid,
		PublishedAt: "2026-08-20T10:00:00Z",
		FetchedOn:   "2026-08-30T09:00:00Z",
		Source:      "news.example",
		Mentions:    mentions,
	}
}

type fixture struct {
	articles   store.ArticleStore
	collection *indexbadger.Collection
	pipeline   *Pipeline
}

func newFixture(t *testing.T, gatherer Gatherer) *fixture {
	t.Helper()

	articles, err := sqlite.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { articles.Close() })

	collection, err := indexbadger.NewMemoryCollection(mock.NewMockEmbedder())
	require.NoError(t, err)
	t.Cleanup(func() { collection.Close() })

	indexer, err := index.NewIndexer(collection)
	require.NoError(t, err)

	p, err := New(gatherer, dedup.New(), articles, indexer)
	require.NoError(t, err)

	return &fixture{articles: articles, collection: collection, pipeline: p}
}

func TestNewValidation(t *testing.T) {
	articles, err := sqlite.NewMemoryStore()
	require.NoError(t, err)
	defer articles.Close()

	collection, err := indexbadger.NewMemoryCollection(mock.NewMockEmbedder())
	require.NoError(t, err)
	defer collection.Close()

	indexer, err := index.NewIndexer(collection)
	require.NoError(t, err)

	g := &stubGatherer{}

	_, err = New(nil, dedup.New(), articles, indexer)
	require.ErrorIs(t, err, ErrNilGatherer)
	_, err = New(g, nil, articles, indexer)
	require.ErrorIs(t, err, ErrNilDeduplicator)
	_, err = New(g, dedup.New(), nil, indexer)
	require.ErrorIs(t, err, ErrNilStore)
	_, err = New(g, dedup.New(), articles, nil)
	require.ErrorIs(t, err, ErrNilIndexer)
}

func TestRunIngestsEndToEnd(t *testing.T) {
	gatherer := &stubGatherer{gatherFunc: func(ctx context.Context, gctx feed.GatherContext) (feed.GatherResult, error) {
		return feed.GatherResult{
			Articles: []core.Article{
				gatheredArticle("u1",
					core.Mention{Symbol: "AAPL.US", Name: "Apple Inc", SentimentScore: 0.5},
					core.Mention{Symbol: "AAPL", Name: "apple inc.", SentimentScore: 0.5},
				),
				gatheredArticle("u2"),
			},
			FailedURLs: []string{"https://bad.example/a"},
			Stats:      feed.GatherStats{Gathered: 2},
		}, nil
	}}

	f := newFixture(t, gatherer)
	stats, err := f.pipeline.Run(context.Background(), RunOptions{Symbols: []string{"AAPL"}})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Gather.Gathered)
	assert.Equal(t, 2, stats.Inserted)
	assert.Equal(t, 0, stats.StoreDuplicates)
	assert.Equal(t, 2, stats.Index.Added)

	ctx := context.Background()

	// The two Apple mentions collapsed to one entity with the dot-free symbol.
	stored, err := f.articles.Articles(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	var u1 *core.Article
	for i := range stored {
		if stored[i].UUID == "u1" {
			u1 = &stored[i]
		}
	}
	require.NotNil(t, u1)
	require.Len(t, u1.Entities, 1)
	assert.Equal(t, "AAPL", u1.Entities[0].Symbol)
	assert.Equal(t, "Positive (0.50)", u1.Entities[0].Sentiment)

	blacklist, err := f.articles.Blacklist(ctx)
	require.NoError(t, err)
	assert.Contains(t, blacklist, "https://bad.example/a")

	count, err := f.collection.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRunSeedsGatherContextFromStore(t *testing.T) {
	var captured feed.GatherContext
	gatherer := &stubGatherer{gatherFunc: func(ctx context.Context, gctx feed.GatherContext) (feed.GatherResult, error) {
		captured = gctx
		return feed.GatherResult{}, nil
	}}

	f := newFixture(t, gatherer)
	ctx := context.Background()

	_, err := f.articles.AddArticles(ctx, []core.Article{gatheredArticle("seen-uuid")})
	require.NoError(t, err)
	require.NoError(t, f.articles.AddToBlacklist(ctx, []string{"https://bad.example/x"}))

	_, err = f.pipeline.Run(ctx, RunOptions{Symbols: []string{"AAPL"}, Days: 3, MaxPages: 2})
	require.NoError(t, err)

	assert.Contains(t, captured.KnownUUIDs, "seen-uuid")
	assert.Contains(t, captured.Blacklist, "https://bad.example/x")
	assert.Equal(t, []string{"AAPL"}, captured.Symbols)
	assert.Equal(t, 3, captured.Days)
	assert.Equal(t, 2, captured.MaxPages)
}

func TestRunIsIdempotentAcrossRuns(t *testing.T) {
	gatherer := &stubGatherer{gatherFunc: func(ctx context.Context, gctx feed.GatherContext) (feed.GatherResult, error) {
		return feed.GatherResult{Articles: []core.Article{gatheredArticle("u1")}}, nil
	}}

	f := newFixture(t, gatherer)
	ctx := context.Background()

	first, err := f.pipeline.Run(ctx, RunOptions{Symbols: []string{"AAPL"}})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Inserted)

	// The stub resends the same article; the store and index both absorb it.
	second, err := f.pipeline.Run(ctx, RunOptions{Symbols: []string{"AAPL"}})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 1, second.StoreDuplicates)
	assert.Equal(t, 0, second.Index.Added)
}

func TestRunSingleFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	gatherer := &stubGatherer{gatherFunc: func(ctx context.Context, gctx feed.GatherContext) (feed.GatherResult, error) {
		close(started)
		<-release
		return feed.GatherResult{}, nil
	}}

	f := newFixture(t, gatherer)

	done := make(chan error, 1)
	go func() {
		_, err := f.pipeline.Run(context.Background(), RunOptions{Symbols: []string{"AAPL"}})
		done <- err
	}()

	<-started
	assert.True(t, f.pipeline.Running())
	_, err := f.pipeline.Run(context.Background(), RunOptions{Symbols: []string{"AAPL"}})
	require.ErrorIs(t, err, ErrRunInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, f.pipeline.Running())
}

func TestRunCancelledBetweenArticles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gatherer := &stubGatherer{gatherFunc: func(ctx context.Context, gctx feed.GatherContext) (feed.GatherResult, error) {
		// Cancel after gathering so the canonicalization loop sees it.
		cancel()
		return feed.GatherResult{Articles: []core.Article{gatheredArticle("u1")}}, nil
	}}

	f := newFixture(t, gatherer)
	_, err := f.pipeline.Run(ctx, RunOptions{Symbols: []string{"AAPL"}})
	require.ErrorIs(t, err, context.Canceled)

	stored, err := f.articles.Articles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestRunWatchdogTimeout(t *testing.T) {
	gatherer := &stubGatherer{gatherFunc: func(ctx context.Context, gctx feed.GatherContext) (feed.GatherResult, error) {
		<-ctx.Done()
		return feed.GatherResult{}, ctx.Err()
	}}

	f := newFixture(t, gatherer)
	_, err := f.pipeline.Run(context.Background(), RunOptions{
		Symbols: []string{"AAPL"},
		Timeout: 20 * time.Millisecond,
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDispatcherRunsInBackground(t *testing.T) {
	done := make(chan struct{})
	gatherer := &stubGatherer{gatherFunc: func(ctx context.Context, gctx feed.GatherContext) (feed.GatherResult, error) {
		defer close(done)
		return feed.GatherResult{Articles: []core.Article{gatheredArticle("u1")}}, nil
	}}

	f := newFixture(t, gatherer)
	d, err := NewDispatcher(f.pipeline, nil)
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.Submit(context.Background(), RunOptions{Symbols: []string{"AAPL"}}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("background ingest did not run")
	}
}

func TestNewDispatcherRequiresPipeline(t *testing.T) {
	_, err := NewDispatcher(nil, nil)
	require.ErrorIs(t, err, ErrNilPipeline)
}
