package llmprocessing

import (
	"context"

	"github.com/datalens-ai/datalens/pkg/protocol"
)

// LLMProcessingNodeFactory creates LLMProcessingNode instances.
type LLMProcessingNodeFactory struct{}

// Create creates a new LLMProcessingNode instance.
func (f *LLMProcessingNodeFactory) Create(_ context.Context, deps protocol.Dependencies, _ map[string]any) (protocol.Node, error) {
	return NewLLMProcessingNode(deps.Generator)
}

// ID returns the factory ID.
func (f *LLMProcessingNodeFactory) ID() string {
	return "llm_processing"
}

// Name returns the factory name.
func (f *LLMProcessingNodeFactory) Name() string {
	return "LLM Processing"
}

// Description returns the factory description.
func (f *LLMProcessingNodeFactory) Description() string {
	return "Fuses all node outputs and streams the final synthesized answer"
}

// Schema returns the JSON schema for LLM processing node configuration.
func (f *LLMProcessingNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

// NewLLMProcessingNodeFactory creates a new factory instance.
func NewLLMProcessingNodeFactory() protocol.NodeFactory {
	return &LLMProcessingNodeFactory{}
}
