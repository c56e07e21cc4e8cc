package ragquery

import (
	"context"

	"github.com/datalens-ai/datalens/pkg/config"
	"github.com/datalens-ai/datalens/pkg/protocol"
)

// RAGQueryNodeFactory creates RAGQueryNode instances.
type RAGQueryNodeFactory struct{}

// Create creates a new RAGQueryNode instance.
func (f *RAGQueryNodeFactory) Create(_ context.Context, deps protocol.Dependencies, cfg map[string]any) (protocol.Node, error) {
	return NewRAGQueryNode(
		deps.DocumentStore,
		deps.Reranker,
		intConfig(cfg, "top_k", config.DefaultRetrievalTopK),
		intConfig(cfg, "rerank_top_k", config.DefaultRerankTopK),
	)
}

// ID returns the factory ID.
func (f *RAGQueryNodeFactory) ID() string {
	return "rag_query"
}

// Name returns the factory name.
func (f *RAGQueryNodeFactory) Name() string {
	return "RAG Query"
}

// Description returns the factory description.
func (f *RAGQueryNodeFactory) Description() string {
	return "Retrieves a ranked candidate document set, reranks it and produces a grounded answer"
}

// Schema returns the JSON schema for RAG query node configuration.
func (f *RAGQueryNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"top_k": map[string]any{
				"type":        "integer",
				"description": "Size of the retrieved candidate set",
				"minimum":     1,
			},
			"rerank_top_k": map[string]any{
				"type":        "integer",
				"description": "Size of the reranked final set; must not exceed top_k",
				"minimum":     1,
			},
		},
	}
}

// NewRAGQueryNodeFactory creates a new factory instance.
func NewRAGQueryNodeFactory() protocol.NodeFactory {
	return &RAGQueryNodeFactory{}
}

func intConfig(config map[string]any, key string, fallback int) int {
	switch v := config[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return fallback
	}
}
