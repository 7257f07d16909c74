// Package store defines the durable persistence contract for ingested
// articles: the append-only article table, the seen-UUID set, and the
// scrape blacklist that together drive duplicate suppression across runs.
//
// The sqlite subpackage provides the embedded implementation.
package store
