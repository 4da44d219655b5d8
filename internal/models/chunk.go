// Package models defines core data structures for chunks, queries, and answers.
package models

// DocumentChunk is a bounded contiguous segment of a source document's text,
// tagged with provenance metadata. Immutable once created.
type DocumentChunk struct {
	Content      string `json:"content"`
	DocumentName string `json:"document_name"`
	// ClauseNumber is the leading numeric clause label of the chunk (e.g. "4.1"),
	// or a synthetic positional label "Part_<n>" when no clause pattern is present.
	ClauseNumber string `json:"clause_number"`
}
