// Package scrape downloads full article pages under site-politeness
// constraints and compresses them into summaries.
//
// The package enforces three rules on every outbound fetch: the target
// site's robots.txt policy (RobotsGuard, cached per host, fail-open),
// randomized per-domain request spacing, and a bounded retry budget with
// an immediate skip on HTTP 403. Domains that fail irrecoverably are
// blacklisted in-process and their URLs recorded for durable persistence.
package scrape
