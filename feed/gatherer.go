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

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/marketnews/ai"
	"github.com/poiesic/marketnews/core"
	"github.com/poiesic/marketnews/scrape"
)

// GatherContext carries everything one gather run needs, including the
// seen-set and blacklist read from the durable store. Passing them here
// rather than holding them on the Gatherer keeps runs independent and makes
// the store handshake explicit.
type GatherContext struct {
	// Symbols to query, at least one required.
	Symbols []string

	// Days of history to sweep, counted back from today. 1 means today only.
	// Ignored when After or Before is set.
	Days int

	// After and Before select date-range mode (YYYY-MM-DD). Range mode is a
	// single sweep of pages; either bound alone is valid.
	After  string
	Before string

	// MaxPages bounds pages fetched per day or per range sweep. Default 1.
	MaxPages int

	// StartPage is the first page number requested. Default 1.
	StartPage int

	// KnownUUIDs is the set of article UUIDs already stored. Matching
	// articles are dropped before scraping.
	KnownUUIDs map[string]struct{}

	// Blacklist holds URLs and domains scraping must not touch again.
	Blacklist map[string]struct{}
}

// GatherStats counts what happened to every article seen during a run.
type GatherStats struct {
	PagesFetched   int
	FetchedRaw     int
	Duplicates     int
	Blacklisted    int
	ParseErrors    int
	EmptySummaries int
	Gathered       int
}

// GatherResult is the output of one gather run. FailedURLs are scrape
// failures the caller should persist into the durable blacklist.
type GatherResult struct {
	Articles   []core.Article
	FailedURLs []string
	Stats      GatherStats
}

// Gatherer fetches paginated news from the feed API and expands each
// surviving article with a scraped summary.
type Gatherer struct {
	client  *Client
	scraper *scrape.Scraper
	logger  *slog.Logger
	now     func() time.Time
}

// GathererOption is a functional option for configuring a Gatherer.
type GathererOption func(*Gatherer)

// WithGathererLogger sets the logger for the gatherer.
func WithGathererLogger(logger *slog.Logger) GathererOption {
	return func(g *Gatherer) {
		g.logger = logger
	}
}

// WithNowFunc overrides the clock used for day windowing. Used in tests.
func WithNowFunc(now func() time.Time) GathererOption {
	return func(g *Gatherer) {
		g.now = now
	}
}

// NewGatherer creates a feed gatherer.
func NewGatherer(client *Client, scraper *scrape.Scraper, opts ...GathererOption) (*Gatherer, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if scraper == nil {
		return nil, ErrNilScraper
	}

	g := &Gatherer{
		client:  client,
		scraper: scraper,
		logger:  slog.Default().With("component", "feed-gatherer"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Gather runs one fetch sweep set. Missing API credentials log an error and
// return an empty result rather than failing the run. A page-level abort
// ends only the current day/range sweep; articles gathered by earlier sweeps
// are kept.
func (g *Gatherer) Gather(ctx context.Context, gctx GatherContext) (GatherResult, error) {
	if len(gctx.Symbols) == 0 {
		return GatherResult{}, ErrNoSymbols
	}
	if err := g.client.validateCredentials(); err != nil {
		g.logger.Error("missing feed API credentials, returning no data")
		return GatherResult{}, nil
	}

	if gctx.MaxPages <= 0 {
		gctx.MaxPages = 1
	}
	if gctx.StartPage <= 0 {
		gctx.StartPage = 1
	}

	var result GatherResult
	raw := g.fetchSweeps(ctx, gctx, &result.Stats)
	result.Stats.FetchedRaw = len(raw)

	kept := g.prefilter(raw, gctx, &result.Stats)
	result.Articles = g.expand(ctx, kept, &result.Stats)
	result.Stats.Gathered = len(result.Articles)
	result.FailedURLs = g.scraper.FailedURLs()

	g.logger.Info("gather complete",
		"pages", result.Stats.PagesFetched,
		"fetched", result.Stats.FetchedRaw,
		"duplicates", result.Stats.Duplicates,
		"blacklisted", result.Stats.Blacklisted,
		"parse_errors", result.Stats.ParseErrors,
		"empty_summaries", result.Stats.EmptySummaries,
		"gathered", result.Stats.Gathered)

	return result, nil
}

// fetchSweeps runs either a single date-range sweep or one sweep per day.
func (g *Gatherer) fetchSweeps(ctx context.Context, gctx GatherContext, stats *GatherStats) []feedArticle {
	if gctx.After != "" || gctx.Before != "" {
		return g.sweep(ctx, pageQuery{symbols: gctx.Symbols, after: gctx.After, before: gctx.Before}, gctx, stats)
	}

	days := gctx.Days
	if days <= 0 {
		days = 1
	}

	var all []feedArticle
	for delta := 0; delta < days; delta++ {
		q := pageQuery{symbols: gctx.Symbols}
		if days > 1 {
			q.publishedOn = g.now().UTC().AddDate(0, 0, -delta).Format("2006-01-02")
		}
		all = append(all, g.sweep(ctx, q, gctx, stats)...)
		if ctx.Err() != nil {
			break
		}
	}
	return all
}

// sweep pages through one day or date range until the page budget runs out,
// a page comes back short or empty, or a fetch aborts.
func (g *Gatherer) sweep(ctx context.Context, q pageQuery, gctx GatherContext, stats *GatherStats) []feedArticle {
	var articles []feedArticle
	for page := gctx.StartPage; page < gctx.StartPage+gctx.MaxPages; page++ {
		q.page = page
		res := g.client.fetchPage(ctx, q)
		stats.PagesFetched++

		switch res.outcome {
		case pageAborted:
			g.logger.Info("stopped fetching early", "page", page, "reason", res.reason)
			return articles
		case pageExhausted:
			return articles
		}

		articles = append(articles, res.articles...)

		// A short page is the last page.
		if len(res.articles) < g.client.PageSize() {
			return articles
		}
	}
	return articles
}

// prefilter parses raw feed articles and drops known UUIDs and blacklisted
// URLs/domains before any scraping cost is spent on them.
func (g *Gatherer) prefilter(raw []feedArticle, gctx GatherContext, stats *GatherStats) []core.Article {
	kept := make([]core.Article, 0, len(raw))
	for i := range raw {
		article, err := g.parseArticle(&raw[i])
		if err != nil {
			stats.ParseErrors++
			g.logger.Warn("skipping malformed feed article", "err", err)
			continue
		}

		if _, seen := gctx.KnownUUIDs[article.UUID]; seen {
			stats.Duplicates++
			continue
		}
		if g.isBlacklisted(&article, gctx.Blacklist) {
			stats.Blacklisted++
			continue
		}

		kept = append(kept, article)
	}
	return kept
}

func (g *Gatherer) isBlacklisted(article *core.Article, blacklist map[string]struct{}) bool {
	if _, ok := blacklist[article.URL]; ok {
		return true
	}
	if domain := article.Domain(); domain != "" {
		if _, ok := blacklist[domain]; ok {
			return true
		}
	}
	return false
}

func (g *Gatherer) parseArticle(raw *feedArticle) (core.Article, error) {
	mentions := make([]core.Mention, 0, len(raw.Entities))
	for _, ent := range raw.Entities {
		mentions = append(mentions, core.Mention{
			Symbol:         ent.Symbol,
			Name:           ent.Name,
			SentimentScore: ent.SentimentScore,
			Industry:       ent.Industry,
		})
	}

	article := core.Article{
		UUID:        raw.UUID,
		Title:       raw.Title,
		Description: raw.Description,
		URL:         raw.URL,
		PublishedAt: raw.PublishedAt,
		FetchedOn:   g.now().UTC().Format(core.TimeLayoutSeconds),
		Source:      raw.sourceString(),
		Mentions:    mentions,
	}
	if err := core.ValidateArticle(&article); err != nil {
		return core.Article{}, err
	}
	return article, nil
}

// expand replaces each article's description with its scraped summary plus
// keyword line. Articles whose scrape yields an empty summary are dropped,
// not retried.
func (g *Gatherer) expand(ctx context.Context, articles []core.Article, stats *GatherStats) []core.Article {
	expanded := make([]core.Article, 0, len(articles))
	for i := range articles {
		if ctx.Err() != nil {
			g.logger.Info("gather cancelled during expansion", "remaining", len(articles)-i)
			break
		}

		summary, err := g.scraper.Scrape(ctx, articles[i].URL)
		if err != nil {
			// Only cancellation reaches here; scrape failures are absorbed.
			break
		}
		if strings.TrimSpace(summary.Summary) == "" {
			stats.EmptySummaries++
			continue
		}

		articles[i].Description = formatDescription(summary)
		expanded = append(expanded, articles[i])
	}
	return expanded
}

// formatDescription renders the stored description: summary text followed by
// a keyword line.
func formatDescription(summary ai.Summary) string {
	return fmt.Sprintf("%s\nKeywords: %s", strings.TrimSpace(summary.Summary), strings.Join(summary.Keywords, ", "))
}
