// Package protocol defines the interfaces and contracts for workflow nodes
// and the external collaborators they call.
package protocol

import (
	"context"

	"github.com/datalens-ai/datalens/pkg/models"
)

// Node is one unit of work in the fixed workflow graph. Execute consumes the
// outputs of upstream nodes through the execution context and returns a typed
// result; a returned error marks the node errored and fails the execution.
type Node interface {
	// ID returns the node identifier within the fixed sequence
	ID() models.NodeType

	// Execute runs the node. Implementations must honor ctx cancellation at
	// their suspension points.
	Execute(ctx context.Context, execCtx models.ExecutionContext) (*models.NodeResult, error)
}

// NodeFactory creates node instances and provides metadata about the node type.
type NodeFactory interface {
	// Create creates a new node instance with the given collaborators and configuration
	Create(ctx context.Context, deps Dependencies, config map[string]any) (Node, error)

	// ID returns the unique identifier for this node type
	ID() string

	// Name returns the human-readable name for this node type
	Name() string

	// Description returns a description of what this node does
	Description() string

	// Schema returns the JSON schema for configuring this node
	Schema() map[string]any
}

// Dependencies bundles the external collaborators nodes may call. A node only
// uses the subset it declares in its description; missing collaborators make
// Create fail, not Execute.
type Dependencies struct {
	DocumentStore DocumentStore
	Reranker      Reranker
	QueryEngine   QueryEngine
	Generator     AnswerGenerator
	Routing       RoutingPolicy
}
