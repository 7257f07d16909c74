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

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/poiesic/marketnews/ai"
	"github.com/poiesic/marketnews/core"
)

const (
	defaultMaxRetries = 3
	defaultMinDelay   = 2 * time.Second
	defaultMaxDelay   = 5 * time.Second
	requestTimeout    = 10 * time.Second
)

// Scraper downloads article pages politely and compresses them into summaries.
//
// Politeness has three layers: robots.txt compliance through a RobotsGuard,
// randomized per-domain request spacing, and bounded retries. A domain whose
// scrape fails irrecoverably is blacklisted for the rest of the process so
// later URLs on the same domain are skipped without cost; the offending URLs
// are recorded separately so the caller can persist them durably.
//
// Scraper is safe for concurrent use, though per-domain spacing means
// concurrent scrapes of one domain serialize on the delay.
type Scraper struct {
	summarizer ai.Summarizer
	guard      *RobotsGuard
	client     *http.Client
	maxRetries int
	minDelay   time.Duration
	maxDelay   time.Duration
	logger     *slog.Logger

	// sleep is context-aware and replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error

	mu          sync.Mutex
	rng         *rand.Rand
	lastRequest map[string]time.Time
	blacklisted map[string]struct{}
	failedURLs  []string
}

// ScraperOption is a functional option for configuring a Scraper.
type ScraperOption func(*Scraper)

// WithGuard sets the robots guard. Defaults to a fresh NewRobotsGuard().
func WithGuard(guard *RobotsGuard) ScraperOption {
	return func(s *Scraper) {
		s.guard = guard
	}
}

// WithHTTPClient sets the HTTP client used for page downloads.
func WithHTTPClient(client *http.Client) ScraperOption {
	return func(s *Scraper) {
		s.client = client
	}
}

// WithMaxRetries sets the download retry bound.
func WithMaxRetries(n int) ScraperOption {
	return func(s *Scraper) {
		s.maxRetries = n
	}
}

// WithDelayRange sets the randomized per-domain spacing window.
func WithDelayRange(min, max time.Duration) ScraperOption {
	return func(s *Scraper) {
		s.minDelay = min
		s.maxDelay = max
	}
}

// WithLogger sets the logger for the scraper.
func WithLogger(logger *slog.Logger) ScraperOption {
	return func(s *Scraper) {
		s.logger = logger
	}
}

// NewScraper creates a polite article scraper backed by the given summarizer.
func NewScraper(summarizer ai.Summarizer, opts ...ScraperOption) (*Scraper, error) {
	if summarizer == nil {
		return nil, ErrNilSummarizer
	}

	s := &Scraper{
		summarizer:  summarizer,
		client:      &http.Client{Timeout: requestTimeout},
		maxRetries:  defaultMaxRetries,
		minDelay:    defaultMinDelay,
		maxDelay:    defaultMaxDelay,
		logger:      slog.Default().With("component", "scraper"),
		sleep:       sleepContext,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		lastRequest: make(map[string]time.Time),
		blacklisted: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.guard == nil {
		s.guard = NewRobotsGuard(WithRobotsLogger(s.logger))
	}
	return s, nil
}

// Scrape fetches the article at url and returns its summary. A zero-value
// Summary with a nil error means the URL was skipped: blacklisted domain,
// robots disallow, or an irrecoverable download failure. Failures blacklist
// the URL's domain for the remainder of the process and record the URL for
// durable persistence by the caller. Only context cancellation is returned
// as an error.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (ai.Summary, error) {
	domain := core.URLDomain(rawURL)

	s.mu.Lock()
	_, skip := s.blacklisted[domain]
	s.mu.Unlock()
	if skip {
		s.logger.Debug("skipping blacklisted domain", "url", rawURL, "domain", domain)
		return ai.Summary{}, nil
	}

	if !s.guard.Allowed(ctx, rawURL) {
		return ai.Summary{}, nil
	}

	text, err := s.download(ctx, rawURL, domain)
	if err != nil {
		if ctx.Err() != nil {
			return ai.Summary{}, ctx.Err()
		}
		s.recordFailure(rawURL, domain, err)
		return ai.Summary{}, nil
	}

	summary, err := s.summarizer.Summarize(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return ai.Summary{}, ctx.Err()
		}
		s.recordFailure(rawURL, domain, err)
		return ai.Summary{}, nil
	}

	return summary, nil
}

// BlacklistedDomains returns the domains blacklisted during this process.
func (s *Scraper) BlacklistedDomains() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	domains := make([]string, 0, len(s.blacklisted))
	for d := range s.blacklisted {
		domains = append(domains, d)
	}
	return domains
}

// FailedURLs returns the URLs whose scrape failed irrecoverably this process.
// The caller persists these into the durable blacklist across runs.
func (s *Scraper) FailedURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	urls := make([]string, len(s.failedURLs))
	copy(urls, s.failedURLs)
	return urls
}

func (s *Scraper) recordFailure(rawURL, domain string, err error) {
	s.mu.Lock()
	s.blacklisted[domain] = struct{}{}
	s.failedURLs = append(s.failedURLs, rawURL)
	s.mu.Unlock()
	s.logger.Warn("scrape failed, blacklisting domain", "url", rawURL, "domain", domain, "err", err)
}

// download fetches the page with per-domain spacing and bounded retries,
// then extracts readable article text. A 403 short-circuits with no retry.
func (s *Scraper) download(ctx context.Context, rawURL, domain string) (string, error) {
	if err := s.respectDelay(ctx, domain); err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		body, err := s.fetch(ctx, rawURL)
		if err == nil {
			s.mu.Lock()
			s.lastRequest[domain] = time.Now()
			s.mu.Unlock()
			return s.extractText(body, rawURL)
		}
		if err == ErrAccessDenied {
			s.logger.Info("access denied, skipping", "url", rawURL)
			return "", err
		}

		lastErr = err
		if attempt < s.maxRetries {
			if serr := s.sleep(ctx, s.randomDelay()); serr != nil {
				return "", serr
			}
		}
	}
	return "", fmt.Errorf("%w: %v", ErrRetriesExhausted, lastErr)
}

func (s *Scraper) fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return "", ErrAccessDenied
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("scrape: unexpected status %d for %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// extractText runs readability extraction over raw HTML and flattens the
// resulting article fragment to plain text.
func (s *Scraper) extractText(rawHTML, rawURL string) (string, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return "", err
	}

	text := normalizeWhitespace(doc.Text())
	if text == "" {
		return "", ErrEmptyContent
	}
	return text, nil
}

// respectDelay sleeps so requests to one domain are spaced by a random
// duration in [minDelay, maxDelay], minus time already elapsed since the
// last request, floored at zero.
func (s *Scraper) respectDelay(ctx context.Context, domain string) error {
	s.mu.Lock()
	last, ok := s.lastRequest[domain]
	s.mu.Unlock()

	wait := s.randomDelay()
	if ok {
		wait -= time.Since(last)
	}
	if wait <= 0 {
		return nil
	}
	return s.sleep(ctx, wait)
}

func (s *Scraper) randomDelay() time.Duration {
	if s.maxDelay <= s.minDelay {
		return s.minDelay
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.minDelay + time.Duration(s.rng.Int63n(int64(s.maxDelay-s.minDelay)))
}

// normalizeWhitespace collapses runs of whitespace within lines and drops
// blank lines, preserving line structure for downstream cleaning.
func normalizeWhitespace(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		lines = append(lines, strings.Join(fields, " "))
	}
	return strings.Join(lines, "\n")
}

// sleepContext blocks for d or until the context is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
