// Package router provides the routing node: it wraps the hybrid routing
// policy and decides whether the structured-query pathway runs.
package router

import (
	"context"
	"errors"

	"github.com/datalens-ai/datalens/pkg/models"
	"github.com/datalens-ai/datalens/pkg/protocol"
)

type RouterNode struct {
	policy protocol.RoutingPolicy
}

func NewRouterNode(policy protocol.RoutingPolicy) (*RouterNode, error) {
	if policy == nil {
		return nil, errors.New("routing policy is required")
	}

	return &RouterNode{policy: policy}, nil
}

func (n *RouterNode) ID() models.NodeType {
	return models.NodeRouter
}

// Execute classifies the query against the registered sources. The policy is
// total, so this node never errors; the decision is emitted once and no
// downstream node may override it.
func (n *RouterNode) Execute(_ context.Context, execCtx models.ExecutionContext) (*models.NodeResult, error) {
	decision := n.policy.Decide(execCtx.Query, execCtx.DataSources)

	if execCtx.Logger != nil {
		execCtx.Logger.Info("Routing decision made",
			"needs_structured_query", decision.NeedsStructuredQuery,
			"rule", decision.RuleTriggered,
		)
	}

	return &models.NodeResult{
		NodeID: models.NodeRouter,
		Output: &decision,
	}, nil
}
