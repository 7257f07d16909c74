// Package badger provides a BadgerDB-backed implementation of the
// index.Collection contract. Embeddings are generated when documents are
// added and similarity queries scan the full collection with cosine
// similarity over unit-normalized vectors.
package badger
