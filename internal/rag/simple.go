package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// SimpleEngine is an in-memory term-overlap retriever. Documents are scored
// by the fraction of query terms they contain, weighted by term frequency.
// The index round-trips through a JSON file via Persist and FromIndex.
type SimpleEngine struct {
	opts SearchOptions
	docs []Document
	// terms caches per-document term frequencies, rebuilt on load.
	terms []map[string]int
}

var _ Engine = (*SimpleEngine)(nil)

// NewSimpleEngine creates an empty engine with the given options.
func NewSimpleEngine(opts SearchOptions) *SimpleEngine {
	if opts.TopK <= 0 {
		opts.TopK = DefaultSearchOptions().TopK
	}
	return &SimpleEngine{opts: opts}
}

// FromIndex loads a persisted index from disk.
func FromIndex(path string, opts SearchOptions) (*SimpleEngine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index %s: %w", path, err)
	}

	var docs []Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode index %s: %w", path, err)
	}

	engine := NewSimpleEngine(opts)
	for _, doc := range docs {
		engine.add(doc)
	}
	return engine, nil
}

// Add indexes a passage and returns its document id.
func (e *SimpleEngine) Add(content string, metadata map[string]string) string {
	doc := Document{
		ID:       uuid.NewString(),
		Content:  content,
		Metadata: metadata,
	}
	e.add(doc)
	return doc.ID
}

func (e *SimpleEngine) add(doc Document) {
	e.docs = append(e.docs, doc)
	e.terms = append(e.terms, termFrequencies(doc.Content))
}

// Documents returns every indexed passage in insertion order.
func (e *SimpleEngine) Documents() []Document {
	docs := make([]Document, len(e.docs))
	copy(docs, e.docs)
	return docs
}

// Len returns the number of indexed passages.
func (e *SimpleEngine) Len() int {
	return len(e.docs)
}

// Retrieve returns up to TopK passages ranked by term overlap with the query.
func (e *SimpleEngine) Retrieve(ctx context.Context, query string) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	queryTerms := tokenize(query)
	if len(queryTerms) == 0 {
		return nil, nil
	}

	type scored struct {
		idx   int
		score float64
	}
	var candidates []scored
	for i := range e.docs {
		score := overlapScore(queryTerms, e.terms[i])
		if score > e.opts.MinScore {
			candidates = append(candidates, scored{idx: i, score: score})
		}
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})
	if len(candidates) > e.opts.TopK {
		candidates = candidates[:e.opts.TopK]
	}

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, Result{
			Text:     e.docs[c.idx].Content,
			Score:    c.score,
			Metadata: e.docs[c.idx].Metadata,
		})
	}
	return results, nil
}

// Persist writes the index to path as JSON, creating parent directories.
func (e *SimpleEngine) Persist(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	data, err := json.MarshalIndent(e.docs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write index %s: %w", path, err)
	}
	return nil
}

// tokenize lowercases and splits text on non-alphanumeric runes.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func termFrequencies(text string) map[string]int {
	freq := make(map[string]int)
	for _, term := range tokenize(text) {
		freq[term]++
	}
	return freq
}

// overlapScore is the fraction of query terms present in the document,
// weighted by how often each matched term occurs.
func overlapScore(queryTerms []string, docTerms map[string]int) float64 {
	if len(queryTerms) == 0 {
		return 0
	}
	matched := 0.0
	for _, term := range queryTerms {
		if n, ok := docTerms[term]; ok {
			matched += 1 + 0.1*float64(n-1)
		}
	}
	return matched / float64(len(queryTerms))
}
