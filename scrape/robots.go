package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// robotsFetchTimeout bounds each robots.txt request. A site whose robots.txt
// does not answer quickly is treated as allowing the fetch.
const robotsFetchTimeout = 5 * time.Second

// RobotsGuard checks outbound URLs against each site's published crawl policy.
// Policies are fetched once per scheme+host and cached for the lifetime of the
// guard. A failed robots.txt fetch defaults to allow: availability is preferred
// over strict compliance, and the failure is logged.
//
// RobotsGuard is safe for concurrent use.
type RobotsGuard struct {
	userAgent string
	client    *http.Client
	logger    *slog.Logger

	mu      sync.Mutex
	groups  map[string]*robotstxt.Group
	blocked map[string]struct{}
}

// RobotsOption is a functional option for configuring a RobotsGuard.
type RobotsOption func(*RobotsGuard)

// WithRobotsUserAgent sets the user agent matched against robots.txt groups.
func WithRobotsUserAgent(ua string) RobotsOption {
	return func(g *RobotsGuard) {
		g.userAgent = ua
	}
}

// WithRobotsHTTPClient sets the HTTP client used to fetch robots.txt files.
func WithRobotsHTTPClient(client *http.Client) RobotsOption {
	return func(g *RobotsGuard) {
		g.client = client
	}
}

// WithRobotsLogger sets the logger for the guard.
func WithRobotsLogger(logger *slog.Logger) RobotsOption {
	return func(g *RobotsGuard) {
		g.logger = logger
	}
}

// NewRobotsGuard creates a guard with an empty policy cache.
func NewRobotsGuard(opts ...RobotsOption) *RobotsGuard {
	g := &RobotsGuard{
		userAgent: "*",
		client:    &http.Client{Timeout: robotsFetchTimeout},
		logger:    slog.Default().With("component", "robots-guard"),
		groups:    make(map[string]*robotstxt.Group),
		blocked:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Allowed reports whether the site's crawl policy permits fetching the URL.
// A disallowed URL records the host as blocked. Malformed URLs are allowed
// through; the fetch itself will fail with a better error.
func (g *RobotsGuard) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}

	group := g.group(ctx, u.Scheme, u.Host)
	if group == nil {
		return true
	}

	if !group.Test(u.Path) {
		g.mu.Lock()
		g.blocked[u.Host] = struct{}{}
		g.mu.Unlock()
		g.logger.Info("scraping disallowed by robots.txt", "url", rawURL)
		return false
	}
	return true
}

// BlockedHosts returns the hosts that have disallowed at least one URL.
func (g *RobotsGuard) BlockedHosts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	hosts := make([]string, 0, len(g.blocked))
	for h := range g.blocked {
		hosts = append(hosts, h)
	}
	return hosts
}

// group returns the cached robots group for scheme+host, fetching the policy
// on first use. Returns nil when no policy could be obtained, which callers
// treat as allow-all.
func (g *RobotsGuard) group(ctx context.Context, scheme, host string) *robotstxt.Group {
	base := scheme + "://" + host

	g.mu.Lock()
	if group, ok := g.groups[base]; ok {
		g.mu.Unlock()
		return group
	}
	g.mu.Unlock()

	group := g.fetchGroup(ctx, base)

	g.mu.Lock()
	g.groups[base] = group
	g.mu.Unlock()
	return group
}

func (g *RobotsGuard) fetchGroup(ctx context.Context, base string) *robotstxt.Group {
	robotsURL := fmt.Sprintf("%s/robots.txt", base)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		g.logger.Warn("failed to build robots.txt request", "url", robotsURL, "err", err)
		return nil
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn("failed to fetch robots.txt", "url", robotsURL, "err", err)
		return nil
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		g.logger.Warn("failed to parse robots.txt", "url", robotsURL, "err", err)
		return nil
	}

	return data.FindGroup(g.userAgent)
}
