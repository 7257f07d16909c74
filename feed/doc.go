// Package feed retrieves financial news from a MarketAux-style API.
//
// The Client pages through the feed with day or date-range windowing; a
// short or empty page ends the sweep, and any transport or HTTP failure
// aborts only the current sweep while keeping articles already gathered.
// The Gatherer layers pre-filtering (seen UUIDs, blacklisted URLs and
// domains) and scrape expansion on top, so every article it returns carries
// a generated summary in place of the feed description.
package feed
