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

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/poiesic/marketnews/core"
	"github.com/poiesic/marketnews/store"
)

// lastUpdateFormat is the human-readable form used for the ingest marker
// and exported timestamps.
const lastUpdateFormat = "January 02, 2006 at 15:04"

const schema = `
CREATE TABLE IF NOT EXISTS articles (
    uuid TEXT PRIMARY KEY,
    title TEXT,
    description TEXT,
    url TEXT UNIQUE,
    published_at TEXT,
    fetched_on TEXT,
    entities_json TEXT
);
CREATE TABLE IF NOT EXISTS blacklist (
    url TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS last_update (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    last_updated TEXT
);
`

// storedEntity is the embedded JSON shape of one canonical entity.
type storedEntity struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	Sentiment string `json:"sentiment"`
	Industry  string `json:"industry"`
}

// Store is the sqlite-backed ArticleStore. The database is opened in WAL
// mode so retrieval reads do not block a concurrent ingest writer.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
	closed atomic.Bool
}

var _ store.ArticleStore = (*Store)(nil)

// Option is a functional option for configuring a Store.
type Option func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New opens (creating if necessary) the article database at path.
func New(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, store.ErrEmptyPath
	}

	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_journal_mode=WAL", path)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	s := &Store{
		db:     db,
		logger: slog.Default().With("component", "sqlite-store"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger.Info("connected to article database", "path", path)
	return s, nil
}

// Close releases the database handle. Further operations return ErrClosed.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ready() error {
	if s.closed.Load() {
		return store.ErrClosed
	}
	return nil
}

// AddArticles inserts a batch in one transaction. Articles whose UUID or URL
// already exists are silently ignored and counted as duplicates. The
// last-updated marker is touched in the same transaction, so a batch commits
// entirely or not at all.
func (s *Store) AddArticles(ctx context.Context, articles []core.Article) (store.AddResult, error) {
	var result store.AddResult
	if err := s.ready(); err != nil {
		return result, err
	}
	if len(articles) == 0 {
		s.logger.Warn("no articles to insert")
		return result, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range articles {
		entitiesJSON, err := encodeEntities(articles[i].Entities)
		if err != nil {
			return store.AddResult{}, fmt.Errorf("encode entities for %s: %w", articles[i].UUID, err)
		}

		query, args, err := sq.Insert("articles").
			Options("OR IGNORE").
			Columns("uuid", "title", "description", "url", "published_at", "fetched_on", "entities_json").
			Values(articles[i].UUID, articles[i].Title, articles[i].Description,
				articles[i].URL, articles[i].PublishedAt, articles[i].FetchedOn, entitiesJSON).
			ToSql()
		if err != nil {
			return store.AddResult{}, err
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return store.AddResult{}, fmt.Errorf("insert article %s: %w", articles[i].UUID, err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return store.AddResult{}, err
		}
		if affected == 0 {
			result.Duplicates++
		} else {
			result.Inserted++
		}
	}

	if err := s.touchLastUpdated(ctx, tx); err != nil {
		return store.AddResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return store.AddResult{}, fmt.Errorf("commit: %w", err)
	}

	s.logger.Debug("stored article batch",
		"inserted", result.Inserted, "duplicates", result.Duplicates)
	return result, nil
}

func (s *Store) touchLastUpdated(ctx context.Context, tx *sql.Tx) error {
	stamp := s.now().Format(lastUpdateFormat)
	_, err := tx.ExecContext(ctx,
		`INSERT INTO last_update (id, last_updated) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET last_updated = excluded.last_updated`,
		stamp)
	if err != nil {
		return fmt.Errorf("touch last_update: %w", err)
	}
	return nil
}

// UUIDs returns every stored article UUID.
func (s *Store) UUIDs(ctx context.Context) ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.stringColumn(ctx, sq.Select("uuid").From("articles"))
}

// Blacklist returns every blacklisted URL.
func (s *Store) Blacklist(ctx context.Context) ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.stringColumn(ctx, sq.Select("url").From("blacklist"))
}

func (s *Store) stringColumn(ctx context.Context, builder sq.SelectBuilder) ([]string, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// AddToBlacklist records URLs scraping failed against irrecoverably.
func (s *Store) AddToBlacklist(ctx context.Context, urls []string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if len(urls) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, u := range urls {
		query, args, err := sq.Insert("blacklist").
			Options("OR IGNORE").
			Columns("url").
			Values(u).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert blacklist entry: %w", err)
		}
	}
	return tx.Commit()
}

// ClearBlacklist removes every blacklist entry.
func (s *Store) ClearBlacklist(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	query, args, err := sq.Delete("blacklist").ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear blacklist: %w", err)
	}
	s.logger.Info("cleared all blacklisted URLs")
	return nil
}

// Articles returns every stored article, newest publication first.
func (s *Store) Articles(ctx context.Context) ([]core.Article, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.queryArticles(ctx, 0)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []core.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	return articles, rows.Err()
}

// DeleteByUUID removes one article as a maintenance operation.
func (s *Store) DeleteByUUID(ctx context.Context, uuid string) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	query, args, err := sq.Delete("articles").Where(sq.Eq{"uuid": uuid}).ToSql()
	if err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete article %s: %w", uuid, err)
	}
	return res.RowsAffected()
}

// DeleteByDescriptionMatch removes articles whose description contains the
// substring, for purging runs of bad summaries.
func (s *Store) DeleteByDescriptionMatch(ctx context.Context, substring string) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	query, args, err := sq.Delete("articles").
		Where(sq.Like{"description": "%" + substring + "%"}).
		ToSql()
	if err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete by description: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	s.logger.Info("deleted articles matching description pattern",
		"pattern", substring, "deleted", deleted)
	return deleted, nil
}

// exportedArticle is the JSON shape of one exported row: timestamps are
// human-formatted and the embedded entity JSON decoded for readability.
type exportedArticle struct {
	UUID        string         `json:"uuid"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	URL         string         `json:"url"`
	PublishedAt string         `json:"published_at"`
	FetchedOn   string         `json:"fetched_on"`
	Entities    []storedEntity `json:"entities"`
}

// ExportJSON dumps up to limit stored articles (0 means all) to w.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer, limit int) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	rows, err := s.queryArticles(ctx, limit)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	exported := []exportedArticle{}
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return 0, err
		}

		entities := make([]storedEntity, 0, len(article.Entities))
		for _, e := range article.Entities {
			entities = append(entities, storedEntity{
				Symbol:    e.Symbol,
				Name:      e.Name,
				Sentiment: e.Sentiment,
				Industry:  e.Industry,
			})
		}

		exported = append(exported, exportedArticle{
			UUID:        article.UUID,
			Title:       article.Title,
			Description: article.Description,
			URL:         article.URL,
			PublishedAt: humanTimestamp(article.PublishedAt),
			FetchedOn:   humanTimestamp(article.FetchedOn),
			Entities:    entities,
		})
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	data, err := json.MarshalIndent(exported, "", "  ")
	if err != nil {
		return 0, err
	}
	if _, err := w.Write(data); err != nil {
		return 0, err
	}

	s.logger.Info("exported articles", "count", len(exported))
	return len(exported), nil
}

// LastUpdated returns the marker written by the most recent ingest batch.
func (s *Store) LastUpdated(ctx context.Context) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	var stamp string
	err := s.db.QueryRowContext(ctx,
		"SELECT last_updated FROM last_update WHERE id = 1").Scan(&stamp)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return stamp, nil
}

func (s *Store) queryArticles(ctx context.Context, limit int) (*sql.Rows, error) {
	builder := sq.Select("uuid", "title", "description", "url", "published_at", "fetched_on", "entities_json").
		From("articles").
		OrderBy("published_at DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	return s.db.QueryContext(ctx, query, args...)
}

func scanArticle(rows *sql.Rows) (core.Article, error) {
	var article core.Article
	var entitiesJSON sql.NullString
	if err := rows.Scan(&article.UUID, &article.Title, &article.Description,
		&article.URL, &article.PublishedAt, &article.FetchedOn, &entitiesJSON); err != nil {
		return core.Article{}, err
	}

	if entitiesJSON.Valid && entitiesJSON.String != "" {
		var stored []storedEntity
		if err := json.Unmarshal([]byte(entitiesJSON.String), &stored); err != nil {
			return core.Article{}, fmt.Errorf("decode entities for %s: %w", article.UUID, err)
		}
		for _, e := range stored {
			article.Entities = append(article.Entities, core.Entity{
				Symbol:    e.Symbol,
				Name:      e.Name,
				Sentiment: e.Sentiment,
				Industry:  e.Industry,
			})
		}
	}
	return article, nil
}

func encodeEntities(entities []core.Entity) (string, error) {
	stored := make([]storedEntity, 0, len(entities))
	for _, e := range entities {
		stored = append(stored, storedEntity{
			Symbol:    e.Symbol,
			Name:      e.Name,
			Sentiment: e.Sentiment,
			Industry:  e.Industry,
		})
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// humanTimestamp reformats a feed timestamp for export. Unparseable values
// pass through unchanged.
func humanTimestamp(value string) string {
	t, err := core.ParsePublishedAt(value)
	if err != nil {
		return value
	}
	return t.Format(lastUpdateFormat)
}
