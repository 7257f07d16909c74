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
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/poiesic/marketnews/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ErrScoreCountMismatch indicates the model returned a different number of
// scores than passages submitted.
var ErrScoreCountMismatch = errors.New("openai: reranker score count does not match passage count")

// Reranker implements ai.Reranker using OpenAI-compatible chat APIs.
// It scores all passages for one query in a single model call.
type Reranker struct {
	client llms.Model
	logger *slog.Logger
}

// rerankResponse is an internal type used for JSON unmarshaling.
type rerankResponse struct {
	Scores []float64 `json:"scores"`
}

// newReranker is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newReranker(config *ai.Config) (*Reranker, error) {
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

	return &Reranker{
		client: client,
		logger: slog.Default().With("component", "openai-reranker"),
	}, nil
}

// NewReranker creates a new reranker using the provided configuration.
//
// Returns ai.Reranker interface to enforce abstraction.
func NewReranker(config *ai.Config) (ai.Reranker, error) {
	return newReranker(config)
}

// Rerank scores each passage against the query and returns one entry per
// passage, ordered by descending score. Ties preserve input order.
func (r *Reranker) Rerank(ctx context.Context, query string, passages []string) ([]ai.RankedPassage, error) {
	if len(passages) == 0 {
		return []ai.RankedPassage{}, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Query: %s\n\n", query)
	for i, p := range passages {
		fmt.Fprintf(&sb, "Passage %d:\n%s\n\n", i+1, p)
	}

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(fmt.Sprintf(rerankPromptTemplate, len(passages))),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(sb.String()),
			},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var result rerankResponse
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := r.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			r.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			r.logger.Debug("no choices returned from model")
			return []ai.RankedPassage{}, nil
		}

		responseText := stripCodeFences(response.Choices[0].Content)
		responseText = repairJSON(responseText)

		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			r.logger.Warn("error parsing reranker response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		if len(result.Scores) != len(passages) {
			lastErr = ErrScoreCountMismatch
			r.logger.Warn("reranker score count mismatch",
				"attempt", attempt+1,
				"want", len(passages),
				"got", len(result.Scores))
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		r.logger.Error("failed to rerank after retries", "err", lastErr)
		return nil, lastErr
	}

	ranked := make([]ai.RankedPassage, len(passages))
	for i, score := range result.Scores {
		ranked[i] = ai.RankedPassage{Index: i, Score: score}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	r.logger.Debug("reranked passages", "count", len(ranked))
	return ranked, nil
}
