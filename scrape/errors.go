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

package scrape

import "errors"

var (
	// ErrNilSummarizer indicates a nil summarizer was provided to NewScraper.
	ErrNilSummarizer = errors.New("scrape: summarizer cannot be nil")

	// ErrAccessDenied indicates the target returned HTTP 403.
	// Permanent, never retried.
	ErrAccessDenied = errors.New("scrape: access denied")

	// ErrRetriesExhausted indicates all download attempts failed.
	ErrRetriesExhausted = errors.New("scrape: retries exhausted")

	// ErrEmptyContent indicates the page yielded no extractable article text.
	ErrEmptyContent = errors.New("scrape: no extractable content")
)
