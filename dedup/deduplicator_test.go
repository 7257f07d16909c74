package dedup

import (
	"testing"

	"github.com/poiesic/marketnews/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenSortRatio(t *testing.T) {
	t.Run("identical", func(t *testing.T) {
		assert.Equal(t, 100, TokenSortRatio("apple", "apple"))
	})

	t.Run("token order ignored", func(t *testing.T) {
		assert.Equal(t, 100, TokenSortRatio("motors general", "general motors"))
	})

	t.Run("both empty", func(t *testing.T) {
		assert.Equal(t, 100, TokenSortRatio("", ""))
	})

	t.Run("disjoint strings score low", func(t *testing.T) {
		assert.Less(t, TokenSortRatio("apple", "zqx"), DefaultThreshold)
	})
}

func TestCanonicalize_CollapsesVariants(t *testing.T) {
	d := New()

	entities := d.Canonicalize([]core.Mention{
		{Symbol: "AAPL", Name: "Apple Inc", SentimentScore: 0.43},
		{Symbol: "AAPL.US", Name: "apple inc.", SentimentScore: 0.41},
	})

	require.Len(t, entities, 1)
	assert.Equal(t, "AAPL", entities[0].Symbol)
	assert.Equal(t, "Positive (0.43)", entities[0].Sentiment)
}

func TestCanonicalize_DistinctEntitiesStayDistinct(t *testing.T) {
	d := New()

	entities := d.Canonicalize([]core.Mention{
		{Symbol: "AAPL", Name: "Apple Inc"},
		{Symbol: "AMZN", Name: "Amazon.com"},
	})

	assert.Len(t, entities, 2)
}

func TestCanonicalize_SymbolPreference(t *testing.T) {
	d := New()

	// suffixed ticker arrives first; the unsuffixed one must still win
	entities := d.Canonicalize([]core.Mention{
		{Symbol: "AAPL.US", Name: "Apple Inc", SentimentScore: 0.1},
		{Symbol: "AAPL", Name: "Apple", SentimentScore: 0.3},
	})

	require.Len(t, entities, 1)
	assert.Equal(t, "AAPL", entities[0].Symbol)
	assert.Equal(t, "Positive (0.30)", entities[0].Sentiment)
}

func TestCanonicalize_AllSuffixedFallsBackToFirst(t *testing.T) {
	d := New()

	entities := d.Canonicalize([]core.Mention{
		{Symbol: "AAPL.US", Name: "Apple Inc"},
		{Symbol: "AAPL.MX", Name: "Apple"},
	})

	require.Len(t, entities, 1)
	assert.Equal(t, "AAPL.US", entities[0].Symbol)
}

func TestCanonicalize_BlankNamesDiscarded(t *testing.T) {
	d := New()

	entities := d.Canonicalize([]core.Mention{
		{Symbol: "X", Name: "   "},
		{Symbol: "Y", Name: "..."},
		{Symbol: "AAPL", Name: "Apple Inc"},
	})

	require.Len(t, entities, 1)
	assert.Equal(t, "AAPL", entities[0].Symbol)
}

func TestCanonicalize_Empty(t *testing.T) {
	d := New()
	assert.Nil(t, d.Canonicalize(nil))
	assert.Nil(t, d.Canonicalize([]core.Mention{}))
}

func TestCanonicalize_SentimentBuckets(t *testing.T) {
	d := New()

	entities := d.Canonicalize([]core.Mention{
		{Symbol: "T", Name: "Tesla Inc", SentimentScore: -0.3},
	})

	require.Len(t, entities, 1)
	assert.Equal(t, "Negative (-0.30)", entities[0].Sentiment)
}
