// Package rag provides the retrieval engine consumed by inspection and
// interpretation actions. The orchestrator treats retrieved passages as
// opaque text; SimpleEngine is a lightweight lexical implementation with
// on-disk persistence, sufficient for pairing original code chunks with
// their modularized counterparts.
package rag

import (
	"context"
)

// Document is an indexed passage.
type Document struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Result is a retrieved passage with its relevance score.
type Result struct {
	Text     string            `json:"text"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// SearchOptions configures retrieval behavior.
type SearchOptions struct {
	// TopK bounds the number of results returned.
	TopK int `json:"top_k" yaml:"top_k"`
	// MinScore drops results scoring below the threshold.
	MinScore float64 `json:"min_score" yaml:"min_score"`
}

// DefaultSearchOptions returns the default retrieval options.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		TopK:     5,
		MinScore: 0.0,
	}
}

// Engine is the retrieval interface the evaluation pipeline depends on.
// SimpleEngine is the only implementation in this module; the pipeline
// programs against the interface so an embedding-backed engine can be
// substituted without touching the debate wiring.
type Engine interface {
	// Retrieve returns passages ranked by relevance to the query.
	Retrieve(ctx context.Context, query string) ([]Result, error)
	// Documents returns every indexed passage in insertion order.
	Documents() []Document
	// Persist writes the index to the given path.
	Persist(path string) error
}
