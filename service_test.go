package marketnews

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/marketnews/ai/mock"
	"github.com/poiesic/marketnews/config"
	"github.com/poiesic/marketnews/core"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Store.Path = filepath.Join(dir, "articles.db")
	cfg.Index.Path = filepath.Join(dir, "index")

	s, err := NewService(cfg, WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func serviceArticle(uuid, description string) core.Article {
	return core.Article{
		UUID:        uuid,
		Title:       "Title " + uuid,
		Description: description,
		URL:         "https://news.example/" + uuid,
		PublishedAt: "2026-08-20T10:00:00Z",
		FetchedOn:   "2026-08-30T09:00:00Z",
		Source:      "news.example",
		Entities: []core.Entity{
			{Symbol: "AAPL", Name: "Apple", Sentiment: "Positive (0.50)"},
		},
	}
}

func TestServiceLifecycle(t *testing.T) {
	s := newTestService(t)
	assert.False(t, s.Ingesting())

	last, err := s.LastUpdated(context.Background())
	require.NoError(t, err)
	assert.Empty(t, last)
}

func TestServiceSearchEmptyIndex(t *testing.T) {
	s := newTestService(t)

	results, err := s.Search(context.Background(), "apple earnings", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestServiceReindexAndDelete(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.Articles().AddArticles(ctx, []core.Article{
		serviceArticle("u1", "Apple summary"),
		serviceArticle("u2", "Unrelated summary"),
	})
	require.NoError(t, err)

	var progress bytes.Buffer
	require.NoError(t, s.Reindex(ctx, &progress))
	assert.Contains(t, progress.String(), "Reindex complete")

	rows, docs, err := s.DeleteArticle(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	assert.Equal(t, 1, docs)

	stored, err := s.Articles().Articles(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "u2", stored[0].UUID)
}

func TestServiceDeleteByDescriptionMatch(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.Articles().AddArticles(ctx, []core.Article{
		serviceArticle("u1", "crypto pump newsletter"),
		serviceArticle("u2", "quarterly earnings report"),
	})
	require.NoError(t, err)
	require.NoError(t, s.Reindex(ctx, nil))

	// Mixed case, like the store's LIKE clause accepts.
	deleted, err := s.DeleteByDescriptionMatch(ctx, "Newsletter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	stored, err := s.Articles().Articles(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "u2", stored[0].UUID)

	// The matching article's index documents went with it.
	rows, docs, err := s.DeleteArticle(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, rows)
	assert.Zero(t, docs)
}

func TestServiceExport(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.Articles().AddArticles(ctx, []core.Article{serviceArticle("u1", "summary")})
	require.NoError(t, err)

	var out bytes.Buffer
	count, err := s.Export(ctx, &out, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Contains(t, out.String(), "u1")
}
