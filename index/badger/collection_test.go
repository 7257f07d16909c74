package badger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/marketnews/ai/mock"
	"github.com/poiesic/marketnews/index"
)

func newTestCollection(t *testing.T) *Collection {
	t.Helper()
	coll, err := NewMemoryCollection(mock.NewMockEmbedder())
	require.NoError(t, err)
	t.Cleanup(func() { coll.Close() })
	return coll
}

func sampleDocs() []index.Document {
	return []index.Document{
		{
			ID:      "u1",
			Content: "Title: Markets rally\n\nDescription: Stocks rose broadly",
			Metadata: map[string]string{
				index.MetaArticleID:  "u1",
				index.MetaEntityType: index.EntityTypeGeneral,
			},
		},
		{
			ID:      "u2_apple",
			Content: "Title: Apple earnings\nEntity: Apple (AAPL)\n\nDescription: Record quarter",
			Metadata: map[string]string{
				index.MetaArticleID:  "u2",
				index.MetaEntityName: "Apple",
				index.MetaEntityType: index.EntityTypeSpecific,
			},
		},
		{
			ID:      "u2_amazon",
			Content: "Title: Apple earnings\nEntity: Amazon (AMZN)\n\nDescription: Record quarter",
			Metadata: map[string]string{
				index.MetaArticleID:  "u2",
				index.MetaEntityName: "Amazon",
				index.MetaEntityType: index.EntityTypeSpecific,
			},
		},
	}
}

func TestNewCollectionRequiresEmbedder(t *testing.T) {
	_, err := NewMemoryCollection(nil)
	require.ErrorIs(t, err, ErrNilEmbedder)
}

func TestAddAndCount(t *testing.T) {
	coll := newTestCollection(t)
	ctx := context.Background()

	require.NoError(t, coll.Add(ctx, sampleDocs()))

	count, err := coll.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestAddSameIDOverwrites(t *testing.T) {
	coll := newTestCollection(t)
	ctx := context.Background()

	docs := sampleDocs()[:1]
	require.NoError(t, coll.Add(ctx, docs))
	require.NoError(t, coll.Add(ctx, docs))

	count, err := coll.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestExistingIDs(t *testing.T) {
	coll := newTestCollection(t)
	ctx := context.Background()

	require.NoError(t, coll.Add(ctx, sampleDocs()))

	existing, err := coll.ExistingIDs(ctx, []string{"u1", "u2_apple", "missing"})
	require.NoError(t, err)
	assert.Len(t, existing, 2)
	assert.Contains(t, existing, "u1")
	assert.Contains(t, existing, "u2_apple")
	assert.NotContains(t, existing, "missing")
}

func TestQueryRanksExactMatchFirst(t *testing.T) {
	coll := newTestCollection(t)
	ctx := context.Background()

	docs := sampleDocs()
	require.NoError(t, coll.Add(ctx, docs))

	// The mock embedder is deterministic, so querying with a document's own
	// content puts that document at similarity 1.0, ahead of the others.
	candidates, err := coll.Query(ctx, docs[1].Content, 10, nil)
	require.NoError(t, err)
	require.NotEmpty(t, candidates)
	assert.Equal(t, docs[1].Content, candidates[0].Document)
	assert.InDelta(t, 1.0, candidates[0].Score, 0.0001)

	for i := 1; i < len(candidates); i++ {
		assert.LessOrEqual(t, candidates[i].Score, candidates[i-1].Score)
	}
}

func TestQueryLimit(t *testing.T) {
	coll := newTestCollection(t)
	ctx := context.Background()

	require.NoError(t, coll.Add(ctx, sampleDocs()))

	candidates, err := coll.Query(ctx, "earnings", 2, nil)
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestQueryMetadataFilter(t *testing.T) {
	coll := newTestCollection(t)
	ctx := context.Background()

	require.NoError(t, coll.Add(ctx, sampleDocs()))

	candidates, err := coll.Query(ctx, "earnings", 10, &index.Filter{
		Metadata: map[string]string{index.MetaEntityName: "Apple"},
	})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Apple", candidates[0].Metadata[index.MetaEntityName])
}

func TestQueryContainsTextFilter(t *testing.T) {
	coll := newTestCollection(t)
	ctx := context.Background()

	require.NoError(t, coll.Add(ctx, sampleDocs()))

	candidates, err := coll.Query(ctx, "markets", 10, &index.Filter{ContainsText: "Stocks rose"})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "u1", candidates[0].Metadata[index.MetaArticleID])
}

func TestDeleteWhere(t *testing.T) {
	coll := newTestCollection(t)
	ctx := context.Background()

	require.NoError(t, coll.Add(ctx, sampleDocs()))

	deleted, err := coll.DeleteWhere(ctx, map[string]string{index.MetaArticleID: "u2"})
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	count, err := coll.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	deleted, err = coll.DeleteWhere(ctx, map[string]string{index.MetaArticleID: "u2"})
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)
}

func TestCollectionPersistsAcrossReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vectors")
	embedder := mock.NewMockEmbedder()
	ctx := context.Background()

	coll, err := NewCollection(dir, embedder)
	require.NoError(t, err)
	require.NoError(t, coll.Add(ctx, sampleDocs()))
	require.NoError(t, coll.Close())

	reopened, err := NewCollection(dir, embedder)
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
