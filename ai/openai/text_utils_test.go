package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanArticleText(t *testing.T) {
	t.Run("drops short navigation lines", func(t *testing.T) {
		input := "Home\nMarkets\nThe central bank raised interest rates by a quarter point on Wednesday, citing persistent inflation.\nContact us"
		got := cleanArticleText(input)

		assert.Equal(t, "The central bank raised interest rates by a quarter point on Wednesday, citing persistent inflation.", got)
	})

	t.Run("drops boilerplate lines", func(t *testing.T) {
		input := "Subscribe to our newsletter for daily market updates and exclusive analysis.\n" +
			"Shares of the automaker fell six percent after the company cut its full year delivery forecast."
		got := cleanArticleText(input)

		assert.Equal(t, "Shares of the automaker fell six percent after the company cut its full year delivery forecast.", got)
		assert.NotContains(t, got, "Subscribe")
	})

	t.Run("blocklist matches whole words only", func(t *testing.T) {
		// "alerted" should not trip the "alert" filter
		input := "Regulators alerted the exchange to unusual trading activity in the stock before the halt."
		got := cleanArticleText(input)

		assert.NotEmpty(t, got)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, "", cleanArticleText(""))
	})
}

func TestFlattenSummary(t *testing.T) {
	t.Run("strips bullets and joins lines", func(t *testing.T) {
		input := "- Revenue grew 12%\n- Margins compressed\n\n• Guidance unchanged"
		got := flattenSummary(input)

		assert.Equal(t, "Revenue grew 12% Margins compressed Guidance unchanged", got)
	})

	t.Run("plain prose unchanged", func(t *testing.T) {
		assert.Equal(t, "Revenue grew.", flattenSummary("Revenue grew."))
	})
}

func TestDedupeKeywords(t *testing.T) {
	t.Run("dedupes case-insensitively", func(t *testing.T) {
		got := dedupeKeywords([]string{"AI Stocks", "ai stocks", "inflation"})

		assert.Equal(t, []string{"AI Stocks", "inflation"}, got)
	})

	t.Run("caps at limit", func(t *testing.T) {
		in := []string{"a1", "b2", "c3", "d4", "e5", "f6", "g7", "h8", "i9"}
		got := dedupeKeywords(in)

		assert.Len(t, got, maxKeywords)
	})

	t.Run("drops empty and punctuation-only entries", func(t *testing.T) {
		got := dedupeKeywords([]string{"", "!!!", "earnings"})

		assert.Equal(t, []string{"earnings"}, got)
	})
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"summary":"x"}`, stripCodeFences("```json\n{\"summary\":\"x\"}\n```"))
	assert.Equal(t, `{"summary":"x"}`, stripCodeFences(`{"summary":"x"}`))
}

func TestRepairJSON(t *testing.T) {
	t.Run("adds missing opening quote", func(t *testing.T) {
		assert.Equal(t, `{"summary": "x"}`, repairJSON(`{summary": "x"}`))
	})

	t.Run("valid JSON untouched", func(t *testing.T) {
		in := `{"summary": "x", "keywords": ["a"]}`
		assert.Equal(t, in, repairJSON(in))
	})
}
