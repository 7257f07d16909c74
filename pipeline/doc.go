// Package pipeline orchestrates one ingest run end to end: seed the gather
// context from the durable store, fetch and expand feed articles,
// canonicalize entity mentions, persist, and index. Runs are single-flight;
// a dispatcher is provided for running ingests in the background.
package pipeline
