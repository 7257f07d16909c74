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

package feed

import "errors"

var (
	// ErrNoSymbols indicates a gather was requested without any symbols.
	ErrNoSymbols = errors.New("feed: at least one symbol is required")

	// ErrNilClient indicates a nil client was provided to NewGatherer.
	ErrNilClient = errors.New("feed: client cannot be nil")

	// ErrNilScraper indicates a nil scraper was provided to NewGatherer.
	ErrNilScraper = errors.New("feed: scraper cannot be nil")

	// ErrMissingCredentials indicates the API token or base URL is unset.
	// The gatherer logs this and returns no data rather than failing a run.
	ErrMissingCredentials = errors.New("feed: missing API credentials")
)
