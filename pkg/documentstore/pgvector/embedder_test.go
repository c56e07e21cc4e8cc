package pgvector

import (
	"math"
	"testing"
)

func TestHashEmbedder_Deterministic(t *testing.T) {
	embedder := NewHashEmbedder()

	first, err := embedder.Embed(t.Context(), "total sales by region")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	second, err := embedder.Embed(t.Context(), "total sales by region")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	if len(first) != EmbeddingDim {
		t.Fatalf("Expected dimension %d, got %d", EmbeddingDim, len(first))
	}

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Embedding differs at %d for identical text", i)
		}
	}
}

func TestHashEmbedder_Normalized(t *testing.T) {
	embedder := NewHashEmbedder()

	vector, err := embedder.Embed(t.Context(), "what is our return policy")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}

	if math.Abs(norm-1) > 1e-5 {
		t.Errorf("Expected unit norm, got %f", norm)
	}
}

func TestHashEmbedder_EmptyText(t *testing.T) {
	embedder := NewHashEmbedder()

	vector, err := embedder.Embed(t.Context(), "")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	for i, v := range vector {
		if v != 0 {
			t.Fatalf("Expected zero vector for empty text, got %f at %d", v, i)
		}
	}
}

func TestHashEmbedder_CaseInsensitive(t *testing.T) {
	embedder := NewHashEmbedder()

	lower, _ := embedder.Embed(t.Context(), "Total Sales")
	upper, _ := embedder.Embed(t.Context(), "total sales")

	for i := range lower {
		if lower[i] != upper[i] {
			t.Fatal("Tokenization must be case insensitive")
		}
	}
}
