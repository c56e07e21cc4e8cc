// Package llmprocessing provides the final synthesis node: it fuses the
// outputs of the earlier nodes into one prompt, streams the generated answer
// fragment by fragment and accumulates the final answer.
package llmprocessing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/datalens-ai/datalens/pkg/models"
	"github.com/datalens-ai/datalens/pkg/protocol"
)

type LLMProcessingNode struct {
	generator protocol.AnswerGenerator
}

func NewLLMProcessingNode(generator protocol.AnswerGenerator) (*LLMProcessingNode, error) {
	if generator == nil {
		return nil, errors.New("answer generator is required")
	}

	return &LLMProcessingNode{generator: generator}, nil
}

func (n *LLMProcessingNode) ID() models.NodeType {
	return models.NodeLLMProcessing
}

// Execute streams the answer. Each received fragment is forwarded through
// EmitFragment before the next one is requested, so observers see fragments
// in generation order. A fragment is never re-emitted after an error.
func (n *LLMProcessingNode) Execute(ctx context.Context, execCtx models.ExecutionContext) (*models.NodeResult, error) {
	prompt := buildPrompt(execCtx)

	stream, err := n.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, models.NewNodeFailure(models.NodeLLMProcessing, models.ErrKindAnswerGeneration, "answer generation failed", err)
	}
	defer stream.Close()

	var (
		answer strings.Builder
		count  int
	)

	for {
		fragment, err := stream.Recv(ctx)
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}

			return nil, models.NewNodeFailure(models.NodeLLMProcessing, models.ErrKindAnswerGeneration, "answer stream failed", err)
		}

		answer.WriteString(fragment)

		if execCtx.EmitFragment != nil {
			if err := execCtx.EmitFragment(count, fragment); err != nil {
				return nil, err
			}
		}

		count++
	}

	return &models.NodeResult{
		NodeID: models.NodeLLMProcessing,
		Output: &models.AnswerOutput{
			Answer:        answer.String(),
			FragmentCount: count,
		},
	}, nil
}

// buildPrompt fuses whatever the earlier nodes produced. Sections for skipped
// or absent outputs are simply omitted.
func buildPrompt(execCtx models.ExecutionContext) string {
	var b strings.Builder

	b.WriteString("Question: ")
	b.WriteString(execCtx.Query)
	b.WriteString("\n")

	if rag, ok := execCtx.RAGOutput(); ok {
		b.WriteString("\nDocument findings:\n")
		b.WriteString(rag.Answer)
		b.WriteString("\n")

		for _, doc := range rag.Reranked {
			fmt.Fprintf(&b, "- %s\n", doc.SourcePath)
		}
	}

	if structured, ok := execCtx.SQLOutput(); ok {
		b.WriteString("\nStructured findings:\n")
		b.WriteString(structured.Answer)
		fmt.Fprintf(&b, "\n(query: %s)\n", structured.QueryText)
	}

	if chart, ok := execCtx.Chart(); ok && chart.Suitable {
		fmt.Fprintf(&b, "\nA %s chart with %d data points accompanies this answer.\n",
			chart.ChartType, len(chart.DataPoints))
	}

	b.WriteString("\nSynthesize a concise answer from the findings above.")

	return b.String()
}
