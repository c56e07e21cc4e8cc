package router

import (
	"testing"

	"github.com/datalens-ai/datalens/pkg/config"
	"github.com/datalens-ai/datalens/pkg/models"
	"github.com/datalens-ai/datalens/pkg/routing"
)

func TestRouterNode_Execute(t *testing.T) {
	node, err := NewRouterNode(routing.NewHybridRouter(config.Default().Routing))
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	execCtx := models.ExecutionContext{
		ID:          "test-exec",
		Query:       "total sales this month",
		DataSources: models.DataSourceContext{HasStructured: true},
		NodeOutputs: make(map[models.NodeType]models.NodeOutput),
	}

	result, err := node.Execute(t.Context(), execCtx)
	if err != nil {
		t.Fatalf("Node execution failed: %v", err)
	}

	decision, ok := result.Output.(*models.RoutingDecision)
	if !ok {
		t.Fatalf("Expected routing decision, got %T", result.Output)
	}

	if !decision.NeedsStructuredQuery {
		t.Error("Expected structured query pathway for aggregation query")
	}

	if decision.RuleTriggered != models.RuleStructuredIntent {
		t.Errorf("Expected structured_intent rule, got %s", decision.RuleTriggered)
	}
}

func TestRouterNode_Execute_NoSources(t *testing.T) {
	node, err := NewRouterNode(routing.NewHybridRouter(config.Default().Routing))
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	execCtx := models.ExecutionContext{
		ID:          "test-exec",
		Query:       "anything at all",
		NodeOutputs: make(map[models.NodeType]models.NodeOutput),
	}

	result, err := node.Execute(t.Context(), execCtx)
	if err != nil {
		t.Fatalf("Router must be total, got error: %v", err)
	}

	decision := result.Output.(*models.RoutingDecision)
	if decision.NeedsStructuredQuery {
		t.Error("No sources registered must not require SQL")
	}

	if decision.RuleTriggered != models.RuleNoSources {
		t.Errorf("Expected no_sources rule, got %s", decision.RuleTriggered)
	}
}

func TestNewRouterNode_RequiresPolicy(t *testing.T) {
	if _, err := NewRouterNode(nil); err == nil {
		t.Error("Expected error for missing routing policy")
	}
}
