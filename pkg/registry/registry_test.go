package registry

import (
	"log/slog"
	"testing"

	"github.com/datalens-ai/datalens/pkg/config"
	"github.com/datalens-ai/datalens/pkg/models"
	"github.com/datalens-ai/datalens/pkg/protocol"
	"github.com/datalens-ai/datalens/pkg/routing"
	"github.com/datalens-ai/datalens/pkg/testutil"
)

func testDependencies() protocol.Dependencies {
	return protocol.Dependencies{
		DocumentStore: &testutil.FakeDocumentStore{Documents: testutil.Corpus(10)},
		Reranker:      &testutil.FakeReranker{},
		QueryEngine:   &testutil.FakeQueryEngine{},
		Generator:     &testutil.FakeGenerator{},
		Routing:       routing.NewHybridRouter(config.Default().Routing),
	}
}

func TestRegisterDefaultNodes(t *testing.T) {
	registry := NewRegistry(slog.Default())
	registry.RegisterDefaultNodes()

	expectedNodes := []string{
		"rag_query",
		"router",
		"sql_agent",
		"chart_process",
		"llm_processing",
	}

	availableNodes := registry.GetAvailableNodes()
	if len(availableNodes) != len(expectedNodes) {
		t.Errorf("Expected %d nodes, got %d", len(expectedNodes), len(availableNodes))
	}

	for _, expectedType := range expectedNodes {
		found := false

		for _, factory := range availableNodes {
			if factory.ID() == expectedType {
				found = true

				break
			}
		}

		if !found {
			t.Errorf("Expected node type '%s' not found in registry", expectedType)
		}
	}
}

func TestCreateNode_RAGQuery(t *testing.T) {
	registry := NewRegistry(slog.Default())
	registry.RegisterDefaultNodes()

	config := map[string]any{
		"top_k":        5,
		"rerank_top_k": 2,
	}

	node, err := registry.CreateNode(t.Context(), "rag_query", testDependencies(), config)
	if err != nil {
		t.Fatalf("Failed to create rag_query node: %v", err)
	}

	if node.ID() != models.NodeRAGQuery {
		t.Errorf("Expected rag_query node, got %s", node.ID())
	}
}

func TestCreateNode_SQLAgent(t *testing.T) {
	registry := NewRegistry(slog.Default())
	registry.RegisterDefaultNodes()

	config := map[string]any{"iteration_cap": 3}

	node, err := registry.CreateNode(t.Context(), "sql_agent", testDependencies(), config)
	if err != nil {
		t.Fatalf("Failed to create sql_agent node: %v", err)
	}

	if node.ID() != models.NodeSQLAgent {
		t.Errorf("Expected sql_agent node, got %s", node.ID())
	}
}

func TestCreateNode_DefaultsWhenConfigEmpty(t *testing.T) {
	registry := NewRegistry(slog.Default())
	registry.RegisterDefaultNodes()

	for _, nodeType := range []string{"rag_query", "router", "sql_agent", "chart_process", "llm_processing"} {
		if _, err := registry.CreateNode(t.Context(), nodeType, testDependencies(), nil); err != nil {
			t.Errorf("Failed to create %s with empty config: %v", nodeType, err)
		}
	}
}

func TestCreateNode_UnknownType(t *testing.T) {
	registry := NewRegistry(slog.Default())
	registry.RegisterDefaultNodes()

	if _, err := registry.CreateNode(t.Context(), "unknown_type", testDependencies(), nil); err == nil {
		t.Fatal("Expected error for unknown node type")
	}
}

func TestCreateNode_InvalidConfig(t *testing.T) {
	registry := NewRegistry(slog.Default())
	registry.RegisterDefaultNodes()

	config := map[string]any{"iteration_cap": "five"}

	if _, err := registry.CreateNode(t.Context(), "sql_agent", testDependencies(), config); err == nil {
		t.Fatal("Expected schema validation error for non-integer iteration cap")
	}
}
