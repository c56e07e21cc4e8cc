package ragquery

import (
	"errors"
	"testing"

	"github.com/datalens-ai/datalens/pkg/models"
	"github.com/datalens-ai/datalens/pkg/testutil"
)

func testContext(query string) models.ExecutionContext {
	return models.ExecutionContext{
		ID:          "test-exec",
		Query:       query,
		DataSources: models.DataSourceContext{HasDocuments: true},
		NodeOutputs: make(map[models.NodeType]models.NodeOutput),
	}
}

func TestRAGQueryNode_Execute(t *testing.T) {
	store := &testutil.FakeDocumentStore{Documents: testutil.Corpus(12)}

	node, err := NewRAGQueryNode(store, &testutil.FakeReranker{}, 10, 3)
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	result, err := node.Execute(t.Context(), testContext("what is our return policy"))
	if err != nil {
		t.Fatalf("Node execution failed: %v", err)
	}

	output, ok := result.Output.(*models.RAGQueryOutput)
	if !ok {
		t.Fatalf("Expected RAG output, got %T", result.Output)
	}

	if len(output.Retrieved) != 10 {
		t.Errorf("Expected 10 retrieved documents, got %d", len(output.Retrieved))
	}

	if len(output.Reranked) != 3 {
		t.Errorf("Expected 3 reranked documents, got %d", len(output.Reranked))
	}

	if output.RerankDegraded {
		t.Error("Rerank should not be degraded with a working reranker")
	}

	if output.Answer == "" {
		t.Error("Expected a grounded answer")
	}

	// Reranked set must be ordered by non-increasing rerank score.
	for i := 1; i < len(output.Reranked); i++ {
		prev, curr := output.Reranked[i-1].RerankScore, output.Reranked[i].RerankScore
		if prev == nil || curr == nil {
			t.Fatal("Reranked documents must carry rerank scores")
		}

		if *curr > *prev {
			t.Errorf("Reranked set out of order at %d: %f > %f", i, *curr, *prev)
		}
	}
}

func TestRAGQueryNode_Execute_SmallCorpus(t *testing.T) {
	store := &testutil.FakeDocumentStore{Documents: testutil.Corpus(2)}

	node, err := NewRAGQueryNode(store, &testutil.FakeReranker{}, 10, 3)
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	result, err := node.Execute(t.Context(), testContext("q"))
	if err != nil {
		t.Fatalf("Node execution failed: %v", err)
	}

	output := result.Output.(*models.RAGQueryOutput)

	if len(output.Retrieved) != 2 {
		t.Errorf("Expected 2 retrieved, got %d", len(output.Retrieved))
	}

	if len(output.Reranked) != 2 {
		t.Errorf("Reranked set must not exceed retrieved set, got %d", len(output.Reranked))
	}
}

func TestRAGQueryNode_Execute_EmptyCorpus(t *testing.T) {
	store := &testutil.FakeDocumentStore{}

	node, err := NewRAGQueryNode(store, &testutil.FakeReranker{}, 10, 3)
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	_, err = node.Execute(t.Context(), testContext("q"))
	if !models.IsRetrievalError(err) {
		t.Fatalf("Expected retrieval error for empty corpus, got %v", err)
	}
}

func TestRAGQueryNode_Execute_StoreUnreachable(t *testing.T) {
	store := &testutil.FakeDocumentStore{Err: errors.New("connection refused")}

	node, err := NewRAGQueryNode(store, &testutil.FakeReranker{}, 10, 3)
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	_, err = node.Execute(t.Context(), testContext("q"))
	if !models.IsRetrievalError(err) {
		t.Fatalf("Expected retrieval error for unreachable store, got %v", err)
	}
}

func TestRAGQueryNode_Execute_RerankFailureDegrades(t *testing.T) {
	store := &testutil.FakeDocumentStore{Documents: testutil.Corpus(10)}
	reranker := &testutil.FakeReranker{Err: errors.New("scorer offline")}

	node, err := NewRAGQueryNode(store, reranker, 10, 3)
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	result, err := node.Execute(t.Context(), testContext("q"))
	if err != nil {
		t.Fatalf("Rerank failure must not fail the node: %v", err)
	}

	output := result.Output.(*models.RAGQueryOutput)

	if !output.RerankDegraded {
		t.Error("Expected degraded rerank flag")
	}

	if len(output.Reranked) != 3 {
		t.Errorf("Expected top 3 unreranked documents, got %d", len(output.Reranked))
	}

	// Degraded set is the prefix of the retrieved set.
	for i, doc := range output.Reranked {
		if doc.SourcePath != output.Retrieved[i].SourcePath {
			t.Errorf("Degraded set diverges from retrieved prefix at %d", i)
		}
	}
}

func TestNewRAGQueryNode_Validation(t *testing.T) {
	if _, err := NewRAGQueryNode(nil, nil, 10, 3); err == nil {
		t.Error("Expected error for missing document store")
	}

	store := &testutil.FakeDocumentStore{}
	if _, err := NewRAGQueryNode(store, nil, 3, 10); err == nil {
		t.Error("Expected error for rerank top-k exceeding top-k")
	}
}
