package index

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/marketnews/core"
)

// fakeCollection is an in-memory Collection for indexer tests.
type fakeCollection struct {
	docs     map[string]Document
	addCalls int
	addErr   error
	existErr error
}

func newFakeCollection() *fakeCollection {
	return &fakeCollection{docs: make(map[string]Document)}
}

func (f *fakeCollection) Add(ctx context.Context, docs []Document) error {
	f.addCalls++
	if f.addErr != nil {
		return f.addErr
	}
	for _, doc := range docs {
		f.docs[doc.ID] = doc
	}
	return nil
}

func (f *fakeCollection) ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	if f.existErr != nil {
		return nil, f.existErr
	}
	existing := make(map[string]struct{})
	for _, id := range ids {
		if _, ok := f.docs[id]; ok {
			existing[id] = struct{}{}
		}
	}
	return existing, nil
}

func (f *fakeCollection) Query(ctx context.Context, text string, n int, filter *Filter) ([]Candidate, error) {
	var out []Candidate
	for _, doc := range f.docs {
		if filter != nil && filter.ContainsText != "" && !strings.Contains(doc.Content, filter.ContainsText) {
			continue
		}
		out = append(out, Candidate{Document: doc.Content, Metadata: doc.Metadata})
	}
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (f *fakeCollection) DeleteWhere(ctx context.Context, metadata map[string]string) (int, error) {
	deleted := 0
	for id, doc := range f.docs {
		match := true
		for k, v := range metadata {
			if doc.Metadata[k] != v {
				match = false
				break
			}
		}
		if match {
			delete(f.docs, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeCollection) Count(ctx context.Context) (int, error) { return len(f.docs), nil }

func (f *fakeCollection) Close() error { return nil }

func testArticle(uuid string, entities ...core.Entity) core.Article {
	return core.Article{
		UUID:        uuid,
		Title:       "Title " + uuid,
		Description: "Description " + uuid,
		URL:         "https://news.example/" + uuid,
		PublishedAt: "2026-08-20T10:00:00Z",
		Source:      "news.example",
		Entities:    entities,
	}
}

func TestNewIndexerRequiresCollection(t *testing.T) {
	_, err := NewIndexer(nil)
	require.ErrorIs(t, err, ErrNilCollection)
}

func TestIndexIsIdempotent(t *testing.T) {
	coll := newFakeCollection()
	ix, err := NewIndexer(coll)
	require.NoError(t, err)

	articles := []core.Article{
		testArticle("u1", core.Entity{Symbol: "AAPL", Name: "Apple", Sentiment: "Positive (0.43)"}),
		testArticle("u2"),
	}

	first, err := ix.Index(context.Background(), articles)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Articles)
	assert.Equal(t, 2, first.Added)
	assert.Equal(t, 0, first.Duplicates)

	countAfterFirst, err := coll.Count(context.Background())
	require.NoError(t, err)

	second, err := ix.Index(context.Background(), articles)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Added)
	assert.Equal(t, 2, second.Duplicates)

	countAfterSecond, err := coll.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, countAfterFirst, countAfterSecond)
}

func TestIndexDeduplicatesWithinOneCall(t *testing.T) {
	coll := newFakeCollection()
	ix, err := NewIndexer(coll)
	require.NoError(t, err)

	// Same article repeated across a page boundary yields the same id twice.
	articles := []core.Article{testArticle("u1"), testArticle("u1")}

	stats, err := ix.Index(context.Background(), articles)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Added)

	count, err := coll.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIndexBatchesWrites(t *testing.T) {
	coll := newFakeCollection()
	ix, err := NewIndexer(coll, WithBatchSize(2))
	require.NoError(t, err)

	articles := []core.Article{
		testArticle("u1"), testArticle("u2"), testArticle("u3"),
		testArticle("u4"), testArticle("u5"),
	}

	stats, err := ix.Index(context.Background(), articles)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Added)
	assert.Equal(t, 3, coll.addCalls)
}

func TestIndexEmptyInput(t *testing.T) {
	coll := newFakeCollection()
	ix, err := NewIndexer(coll)
	require.NoError(t, err)

	stats, err := ix.Index(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
	assert.Equal(t, 0, coll.addCalls)
}

func TestIndexPropagatesBackendErrors(t *testing.T) {
	backendErr := errors.New("backend down")

	t.Run("existing id lookup", func(t *testing.T) {
		coll := newFakeCollection()
		coll.existErr = backendErr
		ix, err := NewIndexer(coll)
		require.NoError(t, err)

		_, err = ix.Index(context.Background(), []core.Article{testArticle("u1")})
		require.ErrorIs(t, err, backendErr)
	})

	t.Run("add", func(t *testing.T) {
		coll := newFakeCollection()
		coll.addErr = backendErr
		ix, err := NewIndexer(coll)
		require.NoError(t, err)

		_, err = ix.Index(context.Background(), []core.Article{testArticle("u1")})
		require.ErrorIs(t, err, backendErr)
	})
}
