// Package memory provides the in-process document store used by
// single-binary deployments without a vector database.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/datalens-ai/datalens/pkg/models"
)

const previewLength = 160

type document struct {
	sourcePath string
	content    string
}

// Store keeps indexed chunks in memory and scores them by lexical overlap
// with the query. Retrieval order is deterministic: score descending, then
// insertion order.
type Store struct {
	mu   sync.RWMutex
	docs []document
}

func NewStore() *Store {
	return &Store{}
}

// Index adds one document chunk.
func (s *Store) Index(_ context.Context, sourcePath, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs = append(s.docs, document{sourcePath: sourcePath, content: content})

	return nil
}

func (s *Store) Search(ctx context.Context, query string, topK int) ([]models.RetrievedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	terms := make(map[string]bool)
	for _, term := range strings.Fields(strings.ToLower(query)) {
		terms[term] = true
	}

	type scored struct {
		doc   document
		score float64
		order int
	}

	all := make([]scored, len(s.docs))
	for i, doc := range s.docs {
		all[i] = scored{doc: doc, score: overlap(terms, doc.content), order: i}
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}

		return all[i].order < all[j].order
	})

	if topK > len(all) {
		topK = len(all)
	}

	results := make([]models.RetrievedDocument, topK)

	for i := range topK {
		results[i] = models.RetrievedDocument{
			SourcePath:     all[i].doc.sourcePath,
			RawScore:       all[i].score,
			ContentPreview: preview(all[i].doc.content),
		}
	}

	return results, nil
}

func overlap(terms map[string]bool, content string) float64 {
	words := strings.Fields(strings.ToLower(content))
	if len(words) == 0 {
		return 0
	}

	matches := 0

	for _, word := range words {
		if terms[word] {
			matches++
		}
	}

	return float64(matches) / float64(len(words))
}

func preview(content string) string {
	if len(content) <= previewLength {
		return content
	}

	return content[:previewLength]
}
