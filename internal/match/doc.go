// Package match scores catalog candidates against scanned titles using
// weighted heuristics over normalized names, edit distance, and external-id
// corroboration. Scoring is pure and deterministic; no I/O happens here.
package match
