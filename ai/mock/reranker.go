package mock

import (
	"context"
	"sort"
	"strings"

	"github.com/poiesic/marketnews/ai"
)

// MockReranker is a test double for ai.Reranker.
// It allows custom behavior injection via function fields.
type MockReranker struct {
	// RerankFunc is called by Rerank if set.
	// If nil, uses default term-overlap scoring.
	RerankFunc func(ctx context.Context, query string, passages []string) ([]ai.RankedPassage, error)

	callCount int
}

// NewMockReranker creates a mock reranker with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockReranker().
func NewMockReranker() *MockReranker {
	return &MockReranker{}
}

// Rerank scores passages by the fraction of query terms they contain.
// Deterministic, so tests can predict which passage wins.
func (m *MockReranker) Rerank(ctx context.Context, query string, passages []string) ([]ai.RankedPassage, error) {
	m.callCount++

	if m.RerankFunc != nil {
		return m.RerankFunc(ctx, query, passages)
	}

	terms := strings.Fields(strings.ToLower(query))
	ranked := make([]ai.RankedPassage, len(passages))
	for i, p := range passages {
		lower := strings.ToLower(p)
		matched := 0
		for _, t := range terms {
			if strings.Contains(lower, t) {
				matched++
			}
		}
		score := 0.0
		if len(terms) > 0 {
			score = float64(matched) / float64(len(terms))
		}
		ranked[i] = ai.RankedPassage{Index: i, Score: score}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked, nil
}

// CallCount returns the number of times Rerank was called.
func (m *MockReranker) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockReranker) Reset() {
	m.callCount = 0
	m.RerankFunc = nil
}
