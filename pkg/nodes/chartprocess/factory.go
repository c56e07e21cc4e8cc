package chartprocess

import (
	"context"

	"github.com/datalens-ai/datalens/pkg/config"
	"github.com/datalens-ai/datalens/pkg/protocol"
)

// ChartProcessNodeFactory creates ChartProcessNode instances.
type ChartProcessNodeFactory struct{}

// Create creates a new ChartProcessNode instance.
func (f *ChartProcessNodeFactory) Create(_ context.Context, _ protocol.Dependencies, cfg map[string]any) (protocol.Node, error) {
	return NewChartProcessNode(intConfig(cfg, "pie_cardinality", config.DefaultPieCardinality))
}

// ID returns the factory ID.
func (f *ChartProcessNodeFactory) ID() string {
	return "chart_process"
}

// Name returns the factory name.
func (f *ChartProcessNodeFactory) Name() string {
	return "Chart Process"
}

// Description returns the factory description.
func (f *ChartProcessNodeFactory) Description() string {
	return "Derives a chart proposal from the structured result when one adds value"
}

// Schema returns the JSON schema for chart process node configuration.
func (f *ChartProcessNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"pie_cardinality": map[string]any{
				"type":        "integer",
				"description": "Largest category count still rendered as a pie chart",
				"minimum":     1,
			},
		},
	}
}

// NewChartProcessNodeFactory creates a new factory instance.
func NewChartProcessNodeFactory() protocol.NodeFactory {
	return &ChartProcessNodeFactory{}
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
