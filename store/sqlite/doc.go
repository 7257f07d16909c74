// Package sqlite implements the durable article store on an embedded
// sqlite database.
//
// The database holds three tables: articles (entities embedded as JSON),
// blacklist, and a singleton last_update marker. It is opened in WAL mode
// so concurrent readers never block the single ingest writer. All article
// writes use insert-or-ignore keyed by UUID (primary) and URL (unique), so
// re-ingesting overlapping feed pages is harmless.
package sqlite
