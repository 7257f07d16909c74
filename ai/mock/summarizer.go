package mock

import (
	"context"
	"strings"

	"github.com/poiesic/marketnews/ai"
)

// MockSummarizer is a test double for ai.Summarizer.
// It allows custom behavior injection via function fields.
type MockSummarizer struct {
	// SummarizeFunc is called by Summarize if set.
	// If nil, uses default truncation behavior.
	SummarizeFunc func(ctx context.Context, text string) (ai.Summary, error)

	callCount int
}

// NewMockSummarizer creates a mock summarizer with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockSummarizer().
func NewMockSummarizer() *MockSummarizer {
	return &MockSummarizer{}
}

// Summarize produces a deterministic summary from text.
// Default behavior: takes the first 30 words as the summary and the first
// 5 distinct lowercase words longer than 4 characters as keywords.
func (m *MockSummarizer) Summarize(ctx context.Context, text string) (ai.Summary, error) {
	m.callCount++

	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, text)
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return ai.Summary{}, nil
	}

	summaryWords := words
	if len(summaryWords) > 30 {
		summaryWords = summaryWords[:30]
	}

	seen := make(map[string]struct{})
	var keywords []string
	for _, w := range words {
		w = strings.ToLower(strings.Trim(w, ".,!?;:\"'()[]{}"))
		if len(w) <= 4 {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		keywords = append(keywords, w)
		if len(keywords) >= 5 {
			break
		}
	}

	return ai.Summary{
		Summary:  strings.Join(summaryWords, " "),
		Keywords: keywords,
	}, nil
}

// CallCount returns the number of times Summarize was called.
func (m *MockSummarizer) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockSummarizer) Reset() {
	m.callCount = 0
	m.SummarizeFunc = nil
}
