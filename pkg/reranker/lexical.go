// Package reranker provides the built-in secondary scorer: a lexical overlap
// reranker over the retrieved candidate previews. It is deterministic and
// self-contained; swap in a cross-encoder-backed Reranker for semantic
// quality.
package reranker

import (
	"context"
	"sort"
	"strings"

	"github.com/datalens-ai/datalens/pkg/models"
)

type LexicalReranker struct{}

func NewLexicalReranker() *LexicalReranker {
	return &LexicalReranker{}
}

// Score orders candidates by query-term overlap with their content preview,
// breaking ties by the original retrieval order, and returns the top topK
// with rerank scores stamped.
func (r *LexicalReranker) Score(ctx context.Context, query string, candidates []models.RetrievedDocument, topK int) ([]models.RetrievedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	terms := termSet(query)

	type scored struct {
		doc   models.RetrievedDocument
		score float64
		rank  int
	}

	all := make([]scored, len(candidates))
	for i, doc := range candidates {
		all[i] = scored{doc: doc, score: overlap(terms, doc.ContentPreview), rank: i}
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}

		return all[i].rank < all[j].rank
	})

	if topK > len(all) {
		topK = len(all)
	}

	out := make([]models.RetrievedDocument, topK)

	for i := range topK {
		out[i] = all[i].doc
		score := all[i].score
		out[i].RerankScore = &score
	}

	return out, nil
}

func termSet(text string) map[string]bool {
	terms := make(map[string]bool)
	for _, term := range strings.Fields(strings.ToLower(text)) {
		terms[term] = true
	}

	return terms
}

// overlap is the fraction of preview terms that appear in the query.
func overlap(terms map[string]bool, preview string) float64 {
	words := strings.Fields(strings.ToLower(preview))
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
