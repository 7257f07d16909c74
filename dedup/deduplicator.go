package dedup

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/poiesic/marketnews/core"
	"github.com/xrash/smetrics"
)

// DefaultThreshold is the minimum similarity (0-100) at which two mentions
// are considered the same real-world entity.
const DefaultThreshold = 60

// Deduplicator clusters raw entity mentions by fuzzy name similarity and
// picks one canonical entity per cluster.
type Deduplicator struct {
	threshold int
	logger    *slog.Logger
}

// Option configures a Deduplicator.
type Option func(*Deduplicator)

// WithThreshold overrides the similarity threshold (0-100).
// Default is DefaultThreshold.
func WithThreshold(threshold int) Option {
	return func(d *Deduplicator) {
		d.threshold = threshold
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Deduplicator) {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger
	}
}

// New creates a Deduplicator.
func New(opts ...Option) *Deduplicator {
	d := &Deduplicator{
		threshold: DefaultThreshold,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// cluster holds the raw mentions grouped under one presumed entity, keyed by
// their normalized names for comparison.
type cluster struct {
	mentions   []core.Mention
	normalized []string
}

// Canonicalize returns one canonical Entity per distinct real-world entity
// among the given mentions. Mentions whose names normalize to an empty string
// are discarded. Clustering is single-link: a mention joins the first cluster
// in which any member scores at or above the threshold. O(n^2) in mentions,
// which stays cheap because articles carry single-digit mention counts.
func (d *Deduplicator) Canonicalize(mentions []core.Mention) []core.Entity {
	var clusters []*cluster

	for _, mention := range mentions {
		normalized := core.NormalizeName(mention.Name)
		if normalized == "" {
			continue
		}

		joined := false
		for _, c := range clusters {
			if d.matchesAny(normalized, c.normalized) {
				c.mentions = append(c.mentions, mention)
				c.normalized = append(c.normalized, normalized)
				joined = true
				break
			}
		}
		if !joined {
			clusters = append(clusters, &cluster{
				mentions:   []core.Mention{mention},
				normalized: []string{normalized},
			})
		}
	}

	if len(clusters) == 0 {
		return nil
	}

	entities := make([]core.Entity, 0, len(clusters))
	for _, c := range clusters {
		canonical := pickCanonical(c.mentions)
		entities = append(entities, core.Entity{
			Symbol:    canonical.Symbol,
			Name:      canonical.Name,
			Sentiment: core.FormatSentiment(canonical.SentimentScore),
			Industry:  canonical.Industry,
		})
	}

	if len(entities) < len(mentions) {
		d.logger.Debug("collapsed entity mentions",
			"mentions", len(mentions), "entities", len(entities))
	}
	return entities
}

// matchesAny reports whether the candidate name is similar enough to any
// member of a cluster.
func (d *Deduplicator) matchesAny(candidate string, members []string) bool {
	for _, member := range members {
		if TokenSortRatio(candidate, member) >= d.threshold {
			return true
		}
	}
	return false
}

// pickCanonical prefers a cluster member whose symbol carries no exchange
// suffix ("AAPL" over "AAPL.US"); failing that, the first member wins.
func pickCanonical(mentions []core.Mention) core.Mention {
	for _, m := range mentions {
		if m.Symbol != "" && !strings.Contains(m.Symbol, ".") {
			return m
		}
	}
	return mentions[0]
}

// TokenSortRatio scores two strings on a 0-100 scale, insensitive to token
// order: tokens are sorted before comparison, and the score is derived from
// the indel edit distance between the sorted forms.
func TokenSortRatio(a, b string) int {
	a = sortTokens(a)
	b = sortTokens(b)

	total := len(a) + len(b)
	if total == 0 {
		return 100
	}

	// WagnerFischer with substitution cost 2 computes the indel distance:
	// a substitution counts as one delete plus one insert.
	distance := smetrics.WagnerFischer(a, b, 1, 1, 2)
	return int(float64(total-distance) / float64(total) * 100)
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
