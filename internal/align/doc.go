// Package align matches an ordered transcript against a slide deck.
//
// Sentences are grouped into overlapping windows, each window is embedded and
// scored against every slide with cosine similarity, and consecutive windows
// that agree on a slide above the threshold are stitched into chunks. The
// chunks are then assembled into one transcript list per slide plus the list of
// sentences no accepted window ever covered.
package align
