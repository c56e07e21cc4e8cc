package protocol

import (
	"context"

	"github.com/datalens-ai/datalens/pkg/models"
)

// DocumentStore supplies ranked documents for a natural-language query.
// Implementations are external to the core; only this contract is assumed.
type DocumentStore interface {
	// Search returns up to topK documents ordered by descending similarity.
	Search(ctx context.Context, query string, topK int) ([]models.RetrievedDocument, error)
}

// Reranker reorders a candidate set with a higher-precision scorer and trims
// it to topK. The returned set must be a subset of the candidates.
type Reranker interface {
	Score(ctx context.Context, query string, candidates []models.RetrievedDocument, topK int) ([]models.RetrievedDocument, error)
}

// QueryEngine executes structured queries against the registered tables.
type QueryEngine interface {
	// Schema describes the tables available to the agent.
	Schema(ctx context.Context) ([]models.TableSchema, error)

	// Execute runs one query and returns its tabular result.
	Execute(ctx context.Context, query string) (*models.TabularResult, error)
}

// FragmentStream is a finite sequence of answer text fragments. Recv returns
// io.EOF after the last fragment; no fragment follows it.
type FragmentStream interface {
	Recv(ctx context.Context) (string, error)
	Close() error
}

// AnswerGenerator produces the final answer as an incrementally consumable
// fragment stream given a prompt assembled from node outputs.
type AnswerGenerator interface {
	Generate(ctx context.Context, prompt string) (FragmentStream, error)
}

// RoutingPolicy decides whether the structured-query pathway adds value for a
// query. It must be total: any (query, capabilities) pair yields a decision.
type RoutingPolicy interface {
	Decide(query string, sources models.DataSourceContext) models.RoutingDecision
}
