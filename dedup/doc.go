// Package dedup collapses near-duplicate entity mentions within a single
// article into canonical entities using fuzzy name clustering.
package dedup
