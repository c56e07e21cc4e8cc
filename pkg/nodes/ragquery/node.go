// Package ragquery provides the retrieval node: it pulls a ranked candidate
// set from the document store, reranks it down to a smaller high-precision
// set and produces an answer grounded in it.
package ragquery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/datalens-ai/datalens/pkg/models"
	"github.com/datalens-ai/datalens/pkg/protocol"
)

type RAGQueryNode struct {
	store      protocol.DocumentStore
	reranker   protocol.Reranker
	topK       int
	rerankTopK int
}

// NewRAGQueryNode creates the retrieval node. The document store is required;
// the reranker is optional and its absence degrades to the unreranked top set.
func NewRAGQueryNode(store protocol.DocumentStore, reranker protocol.Reranker, topK, rerankTopK int) (*RAGQueryNode, error) {
	if store == nil {
		return nil, errors.New("document store is required")
	}

	if rerankTopK > topK {
		return nil, fmt.Errorf("rerank top-k (%d) must not exceed retrieval top-k (%d)", rerankTopK, topK)
	}

	return &RAGQueryNode{
		store:      store,
		reranker:   reranker,
		topK:       topK,
		rerankTopK: rerankTopK,
	}, nil
}

func (n *RAGQueryNode) ID() models.NodeType {
	return models.NodeRAGQuery
}

// Execute retrieves and reranks documents for the query. An empty or
// unreachable corpus is node-fatal; a reranker failure is absorbed and the
// top of the retrieved set is used unreranked.
func (n *RAGQueryNode) Execute(ctx context.Context, execCtx models.ExecutionContext) (*models.NodeResult, error) {
	retrieved, err := n.store.Search(ctx, execCtx.Query, n.topK)
	if err != nil {
		return nil, models.NewNodeFailure(models.NodeRAGQuery, models.ErrKindRetrieval, "document store unreachable", err)
	}

	if len(retrieved) == 0 {
		return nil, models.NewNodeFailure(models.NodeRAGQuery, models.ErrKindRetrieval, "document corpus is empty", nil)
	}

	output := &models.RAGQueryOutput{
		Retrieved: retrieved,
	}

	output.Reranked, output.RerankDegraded = n.rerank(ctx, execCtx, retrieved)
	output.Answer = composeAnswer(execCtx.Query, output.Reranked)

	return &models.NodeResult{
		NodeID: models.NodeRAGQuery,
		Output: output,
	}, nil
}

func (n *RAGQueryNode) rerank(ctx context.Context, execCtx models.ExecutionContext, retrieved []models.RetrievedDocument) ([]models.RetrievedDocument, bool) {
	limit := n.rerankTopK
	if limit > len(retrieved) {
		limit = len(retrieved)
	}

	if n.reranker == nil {
		return retrieved[:limit], true
	}

	reranked, err := n.reranker.Score(ctx, execCtx.Query, retrieved, limit)
	if err != nil {
		if execCtx.Logger != nil {
			execCtx.Logger.Warn("Reranker failed, using unreranked top set", "error", err)
		}

		return retrieved[:limit], true
	}

	return reranked, false
}

// composeAnswer builds the grounded answer text from the reranked set.
func composeAnswer(query string, docs []models.RetrievedDocument) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Based on %d document(s) relevant to %q:", len(docs), query)

	for _, doc := range docs {
		b.WriteString(" ")
		b.WriteString(strings.TrimSpace(doc.ContentPreview))

		if !strings.HasSuffix(doc.ContentPreview, ".") {
			b.WriteString(".")
		}
	}

	return b.String()
}
