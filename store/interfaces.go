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

package store

import (
	"context"
	"io"

	"github.com/poiesic/marketnews/core"
)

// AddResult reports what a batch insert did. Duplicates are articles whose
// UUID or URL was already present; they are absorbed, not errors.
type AddResult struct {
	Inserted   int
	Duplicates int
}

// ArticleStore is the durable layer for articles, the seen-UUID set, and the
// scrape blacklist. Writes are append-only with insert-or-ignore semantics;
// deletion exists only as an explicit maintenance operation.
type ArticleStore interface {
	// AddArticles inserts a batch transactionally. Existing UUIDs/URLs are
	// ignored and counted as duplicates. The last-updated marker is touched
	// in the same transaction.
	AddArticles(ctx context.Context, articles []core.Article) (AddResult, error)

	// UUIDs returns every stored article UUID, for pre-filtering fetches.
	UUIDs(ctx context.Context) ([]string, error)

	// Blacklist returns every blacklisted URL.
	Blacklist(ctx context.Context) ([]string, error)

	// AddToBlacklist records URLs that scraping must not touch again.
	AddToBlacklist(ctx context.Context, urls []string) error

	// ClearBlacklist removes every blacklist entry.
	ClearBlacklist(ctx context.Context) error

	// Articles returns all stored articles, newest publication first.
	Articles(ctx context.Context) ([]core.Article, error)

	// DeleteByUUID removes one article. Returns the number of rows deleted.
	DeleteByUUID(ctx context.Context, uuid string) (int64, error)

	// DeleteByDescriptionMatch removes articles whose description contains
	// the substring. Returns the number of rows deleted.
	DeleteByDescriptionMatch(ctx context.Context, substring string) (int64, error)

	// ExportJSON writes up to limit stored articles (0 means all) as
	// indented JSON with human-readable timestamps and decoded entities.
	// Returns the number of articles exported.
	ExportJSON(ctx context.Context, w io.Writer, limit int) (int, error)

	// LastUpdated returns the human-formatted time of the last ingest
	// batch, or "" if nothing was ever ingested.
	LastUpdated(ctx context.Context) (string, error)

	// Close releases the underlying database handle.
	Close() error
}
