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
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultLanguage = "en"
	defaultPageSize = 3
	clientTimeout   = 30 * time.Second
)

// pageOutcome classifies the result of fetching one feed page. The pagination
// loop inspects it instead of unwinding through errors: an abort ends only the
// current day/range sweep, preserving articles gathered so far.
type pageOutcome int

const (
	// pageOK means the page returned articles; pagination may continue.
	pageOK pageOutcome = iota

	// pageExhausted means the page returned no articles; the sweep is done.
	pageExhausted

	// pageAborted means a transport or HTTP failure ended the sweep early.
	pageAborted
)

// pageResult carries one page of raw feed articles plus its outcome.
type pageResult struct {
	articles []feedArticle
	outcome  pageOutcome
	reason   string
}

// feedEntity mirrors one entry of an article's entities array in feed JSON.
type feedEntity struct {
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	SentimentScore float64 `json:"sentiment_score"`
	Industry       string  `json:"industry"`
}

// feedArticle mirrors one entry of the feed's data array. Source is kept raw
// because some feed versions deliver a plain string and others an object with
// a domain field.
type feedArticle struct {
	UUID        string          `json:"uuid"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	URL         string          `json:"url"`
	PublishedAt string          `json:"published_at"`
	Source      json.RawMessage `json:"source"`
	Entities    []feedEntity    `json:"entities"`
}

// sourceString resolves the flexible source field to a plain domain string.
func (a *feedArticle) sourceString() string {
	if len(a.Source) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(a.Source, &s); err == nil {
		return s
	}
	var obj struct {
		Domain string `json:"domain"`
	}
	if err := json.Unmarshal(a.Source, &obj); err == nil {
		return obj.Domain
	}
	return ""
}

// pageQuery is the parameter set for one feed page request. Exactly one of
// PublishedOn or the After/Before pair may be populated; all empty means
// "today".
type pageQuery struct {
	symbols     []string
	publishedOn string
	after       string
	before      string
	page        int
}

// Client issues paginated requests against a MarketAux-style news feed API.
type Client struct {
	baseURL        string
	apiToken       string
	language       string
	filterEntities bool
	pageSize       int
	httpClient     *http.Client
	logger         *slog.Logger
}

// ClientOption is a functional option for configuring a Client.
type ClientOption func(*Client)

// WithLanguage sets the article language filter.
func WithLanguage(lang string) ClientOption {
	return func(c *Client) {
		c.language = lang
	}
}

// WithPageSize sets the number of articles requested per page.
func WithPageSize(n int) ClientOption {
	return func(c *Client) {
		c.pageSize = n
	}
}

// WithFilterEntities controls the feed's entity filtering flag.
func WithFilterEntities(filter bool) ClientOption {
	return func(c *Client) {
		c.filterEntities = filter
	}
}

// WithClientHTTPClient sets the HTTP client used for feed requests.
func WithClientHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithClientLogger sets the logger for the client.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a feed API client. baseURL and apiToken may be empty;
// validation happens at gather time so a misconfigured deployment degrades
// to "no data" instead of crashing.
func NewClient(baseURL, apiToken string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:        baseURL,
		apiToken:       apiToken,
		language:       defaultLanguage,
		filterEntities: true,
		pageSize:       defaultPageSize,
		httpClient:     &http.Client{Timeout: clientTimeout},
		logger:         slog.Default().With("component", "feed-client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// validateCredentials reports whether the client can reach the feed at all.
func (c *Client) validateCredentials() error {
	if c.baseURL == "" || c.apiToken == "" {
		return ErrMissingCredentials
	}
	return nil
}

// PageSize returns the configured page size. The gatherer compares page item
// counts against it to detect the last page.
func (c *Client) PageSize() int {
	return c.pageSize
}

// fetchPage requests one page. All failures are folded into the outcome:
// timeouts and transport errors, HTTP error statuses, and undecodable bodies
// all abort the sweep. HTTP 402 (quota exhausted) is logged distinctly but
// aborts like any other HTTP error.
func (c *Client) fetchPage(ctx context.Context, q pageQuery) pageResult {
	reqURL, err := c.buildURL(q)
	if err != nil {
		return pageResult{outcome: pageAborted, reason: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return pageResult{outcome: pageAborted, reason: err.Error()}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("feed request failed", "page", q.page, "err", err)
		return pageResult{outcome: pageAborted, reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusPaymentRequired {
		c.logger.Error("API request limit reached (HTTP 402), stopping further requests")
		return pageResult{outcome: pageAborted, reason: "quota exhausted"}
	}
	if resp.StatusCode >= 400 {
		c.logger.Error("feed API error", "status", resp.StatusCode, "page", q.page)
		return pageResult{outcome: pageAborted, reason: fmt.Sprintf("http status %d", resp.StatusCode)}
	}

	var body struct {
		Data []feedArticle `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.logger.Error("failed to decode feed response", "page", q.page, "err", err)
		return pageResult{outcome: pageAborted, reason: err.Error()}
	}

	if len(body.Data) == 0 {
		return pageResult{outcome: pageExhausted}
	}
	return pageResult{articles: body.Data, outcome: pageOK}
}

func (c *Client) buildURL(q pageQuery) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("api_token", c.apiToken)
	params.Set("symbols", strings.Join(q.symbols, ","))
	params.Set("language", c.language)
	params.Set("filter_entities", strconv.FormatBool(c.filterEntities))
	params.Set("limit", strconv.Itoa(c.pageSize))
	params.Set("page", strconv.Itoa(q.page))

	switch {
	case q.after != "" || q.before != "":
		if q.after != "" {
			params.Set("published_after", q.after)
		}
		if q.before != "" {
			params.Set("published_before", q.before)
		}
	case q.publishedOn != "":
		params.Set("published_on", q.publishedOn)
	}

	u.RawQuery = params.Encode()
	return u.String(), nil
}
