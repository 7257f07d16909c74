// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/marketnews/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// maxKeywords caps the number of keywords returned per article.
const maxKeywords = 7

// Summarizer implements ai.Summarizer using OpenAI-compatible chat APIs.
type Summarizer struct {
	client   llms.Model
	maxWords int
	logger   *slog.Logger
}

// summaryResponse is an internal type used for JSON unmarshaling.
// It matches the structure expected from the LLM.
type summaryResponse struct {
	Summary  string   `json:"summary"`
	Keywords []string `json:"keywords"`
}

// newSummarizer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newSummarizer(config *ai.Config) (*Summarizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that
	// don't require authentication.
	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken("none"),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return &Summarizer{
		client:   client,
		maxWords: config.SummaryMaxWords,
		logger:   slog.Default().With("component", "openai-summarizer"),
	}, nil
}

// NewSummarizer creates a new summarizer using the provided configuration.
//
// Returns ai.Summarizer interface to enforce abstraction.
func NewSummarizer(config *ai.Config) (ai.Summarizer, error) {
	return newSummarizer(config)
}

// Summarize compresses raw article text into a short summary plus keywords.
// Boilerplate lines (subscription prompts, short navigation fragments) are
// stripped before the text reaches the model. An empty Summary in the result
// means the article had no usable content.
func (s *Summarizer) Summarize(ctx context.Context, text string) (ai.Summary, error) {
	cleaned := cleanArticleText(text)
	if cleaned == "" {
		s.logger.Debug("no usable text after cleaning", "input_length", len(text))
		return ai.Summary{}, nil
	}

	systemPrompt := fmt.Sprintf(summaryPromptTemplate, s.maxWords, maxKeywords)
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(systemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(cleaned),
			},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var result summaryResponse
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := s.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			s.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return ai.Summary{}, err
		}

		if len(response.Choices) < 1 {
			s.logger.Debug("no choices returned from model")
			return ai.Summary{}, nil
		}

		responseText := stripCodeFences(response.Choices[0].Content)
		responseText = repairJSON(responseText)

		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			s.logger.Warn("error parsing summarizer response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		s.logger.Error("failed to parse summarizer response after retries", "err", lastErr)
		return ai.Summary{}, lastErr
	}

	summary := ai.Summary{
		Summary:  flattenSummary(result.Summary),
		Keywords: dedupeKeywords(result.Keywords),
	}

	s.logger.Debug("summarized article",
		"input_length", len(cleaned),
		"summary_length", len(summary.Summary),
		"keywords", len(summary.Keywords))

	return summary, nil
}

// dedupeKeywords normalizes, deduplicates and caps the keyword list.
// Keywords keep their original casing; deduplication compares a lowercase
// alphanumeric form so "AI Stocks" and "ai stocks" collapse to one entry.
func dedupeKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		cleaned := normalizeKeyword(kw)
		if cleaned == "" {
			continue
		}
		if _, ok := seen[cleaned]; ok {
			continue
		}
		seen[cleaned] = struct{}{}
		out = append(out, strings.TrimSpace(kw))
		if len(out) >= maxKeywords {
			break
		}
	}
	return out
}
