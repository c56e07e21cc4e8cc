package router

import (
	"context"

	"github.com/datalens-ai/datalens/pkg/protocol"
)

// RouterNodeFactory creates RouterNode instances.
type RouterNodeFactory struct{}

// Create creates a new RouterNode instance.
func (f *RouterNodeFactory) Create(_ context.Context, deps protocol.Dependencies, _ map[string]any) (protocol.Node, error) {
	return NewRouterNode(deps.Routing)
}

// ID returns the factory ID.
func (f *RouterNodeFactory) ID() string {
	return "router"
}

// Name returns the factory name.
func (f *RouterNodeFactory) Name() string {
	return "Router"
}

// Description returns the factory description.
func (f *RouterNodeFactory) Description() string {
	return "Decides whether the structured-query pathway adds value for the query"
}

// Schema returns the JSON schema for router node configuration. The
// vocabularies live in the routing policy configuration, not per node.
func (f *RouterNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

// NewRouterNodeFactory creates a new factory instance.
func NewRouterNodeFactory() protocol.NodeFactory {
	return &RouterNodeFactory{}
}
