// Package metadata orchestrates catalog providers: it matches a scanned
// game against the highest-priority catalog that recognizes it, merges
// descriptions and artwork from every provider field by field, and emits
// the persisted library record.
package metadata
