package pgvector

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// EmbeddingDim is the fixed dimension of document and query vectors.
const EmbeddingDim = 256

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// HashEmbedder is the built-in deterministic embedder: tokens are hashed into
// buckets and the resulting frequency vector is L2-normalized. It needs no
// external model service, which keeps ingestion and retrieval fully
// self-contained; swap in a model-backed Embedder for semantic quality.
type HashEmbedder struct{}

func NewHashEmbedder() *HashEmbedder {
	return &HashEmbedder{}
}

func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vector := make([]float32, EmbeddingDim)

	for _, token := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vector[h.Sum32()%EmbeddingDim]++
	}

	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}

	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vector {
			vector[i] *= scale
		}
	}

	return vector, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
}
