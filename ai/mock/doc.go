// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Summarizer,
// ai.Reranker, and ai.Provider for use in unit tests. The mocks allow tests
// to run without external AI service dependencies and enable controlled,
// deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	vec, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	mockSummarizer := mock.NewMockSummarizer()
//	mockSummarizer.SummarizeFunc = func(ctx context.Context, text string) (ai.Summary, error) {
//	    return ai.Summary{Summary: "fixed summary"}, nil
//	}
//
// # Default Behavior
//
//   - MockEmbedder: deterministic vectors from an FNV hash of the text
//   - MockSummarizer: first words of the input as summary, long words as keywords
//   - MockReranker: scores passages by query term overlap
package mock
