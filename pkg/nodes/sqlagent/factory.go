package sqlagent

import (
	"context"

	"github.com/datalens-ai/datalens/pkg/config"
	"github.com/datalens-ai/datalens/pkg/protocol"
)

// SQLAgentNodeFactory creates SQLAgentNode instances.
type SQLAgentNodeFactory struct{}

// Create creates a new SQLAgentNode instance.
func (f *SQLAgentNodeFactory) Create(_ context.Context, deps protocol.Dependencies, cfg map[string]any) (protocol.Node, error) {
	return NewSQLAgentNode(
		deps.QueryEngine,
		intConfig(cfg, "iteration_cap", config.DefaultAgentIterationCap),
		intConfig(cfg, "sample_row_limit", config.DefaultSampleRowLimit),
	)
}

// ID returns the factory ID.
func (f *SQLAgentNodeFactory) ID() string {
	return "sql_agent"
}

// Name returns the factory name.
func (f *SQLAgentNodeFactory) Name() string {
	return "SQL Agent"
}

// Description returns the factory description.
func (f *SQLAgentNodeFactory) Description() string {
	return "Answers the query from structured sources via a bounded query-refinement loop"
}

// Schema returns the JSON schema for SQL agent node configuration.
func (f *SQLAgentNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"iteration_cap": map[string]any{
				"type":        "integer",
				"description": "Maximum number of query attempts before giving up",
				"minimum":     1,
			},
			"sample_row_limit": map[string]any{
				"type":        "integer",
				"description": "Maximum number of sample rows carried in the node output",
				"minimum":     0,
			},
		},
	}
}

// NewSQLAgentNodeFactory creates a new factory instance.
func NewSQLAgentNodeFactory() protocol.NodeFactory {
	return &SQLAgentNodeFactory{}
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
