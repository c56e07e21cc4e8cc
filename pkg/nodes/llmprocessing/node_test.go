package llmprocessing

import (
	"errors"
	"strings"
	"testing"

	"github.com/datalens-ai/datalens/pkg/models"
	"github.com/datalens-ai/datalens/pkg/testutil"
)

func fusedContext() models.ExecutionContext {
	return models.ExecutionContext{
		ID:    "test-exec",
		Query: "total sales by region",
		NodeOutputs: map[models.NodeType]models.NodeOutput{
			models.NodeRAGQuery: &models.RAGQueryOutput{
				Answer: "The handbook describes regional sales reporting.",
				Reranked: []models.RetrievedDocument{
					{SourcePath: "docs/handbook-01.md"},
				},
			},
			models.NodeSQLAgent: &models.StructuredQueryResult{
				Answer:    "The query against table sales returned 3 row(s).",
				QueryText: "SELECT region, SUM(amount) AS total FROM sales GROUP BY region ORDER BY total DESC",
			},
			models.NodeChartProcess: &models.ChartSpec{
				ChartType:  models.ChartTypePie,
				Suitable:   true,
				DataPoints: []models.DataPoint{{Label: "north", Value: 120.5}, {Label: "south", Value: 98}},
			},
		},
	}
}

func TestLLMProcessingNode_Execute(t *testing.T) {
	generator := &testutil.FakeGenerator{
		Fragments: testutil.WordStream("Sales are led by the north region."),
	}

	node, err := NewLLMProcessingNode(generator)
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	var emitted []string

	execCtx := fusedContext()
	execCtx.EmitFragment = func(index int, text string) error {
		if index != len(emitted) {
			t.Errorf("Fragment index out of order: got %d, want %d", index, len(emitted))
		}

		emitted = append(emitted, text)

		return nil
	}

	result, err := node.Execute(t.Context(), execCtx)
	if err != nil {
		t.Fatalf("Node execution failed: %v", err)
	}

	output, ok := result.Output.(*models.AnswerOutput)
	if !ok {
		t.Fatalf("Expected answer output, got %T", result.Output)
	}

	if output.Answer != "Sales are led by the north region." {
		t.Errorf("Accumulated answer mismatch: %q", output.Answer)
	}

	if output.FragmentCount != len(emitted) {
		t.Errorf("Fragment count %d does not match emitted %d", output.FragmentCount, len(emitted))
	}

	if strings.Join(emitted, "") != output.Answer {
		t.Error("Concatenated fragments must equal the final answer")
	}
}

func TestLLMProcessingNode_PromptFusion(t *testing.T) {
	generator := &testutil.FakeGenerator{Fragments: []string{"ok"}}

	node, err := NewLLMProcessingNode(generator)
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	if _, err := node.Execute(t.Context(), fusedContext()); err != nil {
		t.Fatalf("Node execution failed: %v", err)
	}

	if len(generator.Prompts) != 1 {
		t.Fatalf("Expected one prompt, got %d", len(generator.Prompts))
	}

	prompt := generator.Prompts[0]

	for _, want := range []string{
		"total sales by region",
		"docs/handbook-01.md",
		"SELECT region",
		"pie chart",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Prompt missing %q", want)
		}
	}
}

func TestLLMProcessingNode_SkippedAgentOmitted(t *testing.T) {
	generator := &testutil.FakeGenerator{Fragments: []string{"ok"}}

	node, err := NewLLMProcessingNode(generator)
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	execCtx := fusedContext()
	delete(execCtx.NodeOutputs, models.NodeSQLAgent)

	if _, err := node.Execute(t.Context(), execCtx); err != nil {
		t.Fatalf("Node execution failed: %v", err)
	}

	if strings.Contains(generator.Prompts[0], "Structured findings") {
		t.Error("Prompt must omit the structured section when the agent was skipped")
	}
}

func TestLLMProcessingNode_GeneratorFailure(t *testing.T) {
	generator := &testutil.FakeGenerator{Err: errors.New("model overloaded")}

	node, err := NewLLMProcessingNode(generator)
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	_, err = node.Execute(t.Context(), fusedContext())
	if models.FailureKind(err) != models.ErrKindAnswerGeneration {
		t.Fatalf("Expected answer_generation_error, got %v", err)
	}
}

func TestLLMProcessingNode_EmitFailureStopsStreaming(t *testing.T) {
	generator := &testutil.FakeGenerator{
		Fragments: []string{"one ", "two ", "three"},
	}

	node, err := NewLLMProcessingNode(generator)
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	stop := errors.New("observer gone")
	execCtx := fusedContext()
	execCtx.EmitFragment = func(index int, _ string) error {
		if index >= 1 {
			return stop
		}

		return nil
	}

	if _, err := node.Execute(t.Context(), execCtx); !errors.Is(err, stop) {
		t.Fatalf("Expected emit error to surface, got %v", err)
	}
}

func TestNewLLMProcessingNode_Validation(t *testing.T) {
	if _, err := NewLLMProcessingNode(nil); err == nil {
		t.Error("Expected error for missing generator")
	}
}
