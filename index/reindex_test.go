package index

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/marketnews/core"
	"github.com/poiesic/marketnews/store/sqlite"
)

func TestNewReindexerValidation(t *testing.T) {
	coll := newFakeCollection()

	_, err := NewReindexer(nil, coll, nil, nil)
	require.ErrorIs(t, err, ErrNilStore)

	articles, err := sqlite.NewMemoryStore()
	require.NoError(t, err)
	defer articles.Close()

	_, err = NewReindexer(articles, nil, nil, nil)
	require.ErrorIs(t, err, ErrNilCollection)
}

func TestReindexRebuildsDocuments(t *testing.T) {
	articles, err := sqlite.NewMemoryStore()
	require.NoError(t, err)
	defer articles.Close()

	stored := []core.Article{
		testArticle("u1", core.Entity{Symbol: "AAPL", Name: "Apple", Sentiment: "Positive (0.43)"}),
		testArticle("u2"),
	}
	_, err = articles.AddArticles(context.Background(), stored)
	require.NoError(t, err)

	coll := newFakeCollection()

	// Seed a stale document that the reindex must replace.
	require.NoError(t, coll.Add(context.Background(), []Document{{
		ID:       "u1_apple",
		Content:  "stale content",
		Metadata: map[string]string{MetaArticleID: "u1"},
	}}))

	var progress bytes.Buffer
	r, err := NewReindexer(articles, coll, nil, &progress)
	require.NoError(t, err)
	require.NoError(t, r.Run(context.Background()))

	count, err := coll.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	rebuilt, ok := coll.docs["u1_apple"]
	require.True(t, ok)
	assert.NotEqual(t, "stale content", rebuilt.Content)
	assert.Contains(t, rebuilt.Content, "Entity: Apple (AAPL)")

	assert.Contains(t, progress.String(), "Reindex complete")
}

func TestReindexEmptyStore(t *testing.T) {
	articles, err := sqlite.NewMemoryStore()
	require.NoError(t, err)
	defer articles.Close()

	var progress bytes.Buffer
	r, err := NewReindexer(articles, newFakeCollection(), nil, &progress)
	require.NoError(t, err)
	require.NoError(t, r.Run(context.Background()))
	assert.Contains(t, progress.String(), "No articles found")
}
