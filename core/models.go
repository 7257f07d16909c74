package core

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived identifier used for fixed-width storage keys.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Identical content always produces the same ID.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Mention is a raw entity mention as delivered by the news feed, before
// deduplication. Several mentions in one article may refer to the same
// real-world entity under slightly different names.
type Mention struct {
	Symbol         string
	Name           string
	SentimentScore float64
	Industry       string
}

// Entity is a canonical company/ticker mention within one article,
// produced by the deduplicator from one or more Mentions.
type Entity struct {
	Symbol    string
	Name      string
	Sentiment string // formatted label, e.g. "Positive (0.43)"
	Industry  string
}

// Article is one ingested news item. The UUID is assigned by the feed
// provider and is never regenerated. Description may be replaced by a
// generated summary before the article is stored; after storage articles
// are immutable.
type Article struct {
	UUID        string
	Title       string
	Description string
	URL         string
	PublishedAt string // feed-native timestamp, kept verbatim
	FetchedOn   string
	Source      string
	Mentions    []Mention // raw feed mentions, cleared once canonicalized
	Entities    []Entity
}

// Domain returns the host portion of the article URL, or "" if the URL
// has no recognizable host.
func (a *Article) Domain() string {
	return URLDomain(a.URL)
}

// FormatSentiment buckets a raw sentiment score into a three-way label
// rendered with two-decimal precision: Positive above 0.2, Negative below
// -0.2, Neutral otherwise.
func FormatSentiment(score float64) string {
	switch {
	case score > 0.2:
		return fmt.Sprintf("Positive (%.2f)", score)
	case score < -0.2:
		return fmt.Sprintf("Negative (%.2f)", score)
	default:
		return fmt.Sprintf("Neutral (%.2f)", score)
	}
}

// Timestamp layouts delivered by the feed: RFC3339-style, with or without
// fractional seconds. Both must parse everywhere a published_at is read back.
const (
	TimeLayoutFractional = "2006-01-02T15:04:05.000000Z"
	TimeLayoutSeconds    = "2006-01-02T15:04:05Z"
)

// ParsePublishedAt parses a feed timestamp in either accepted layout.
func ParsePublishedAt(value string) (time.Time, error) {
	if t, err := time.Parse(TimeLayoutFractional, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(TimeLayoutSeconds, value); err == nil {
		return t, nil
	}
	return time.Time{}, ErrInvalidTimestamp
}

// URLDomain extracts the host from a URL string.
func URLDomain(rawURL string) string {
	s := rawURL
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	return s
}
