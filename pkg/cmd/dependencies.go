package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/datalens-ai/datalens/pkg/config"
	"github.com/datalens-ai/datalens/pkg/documentstore/memory"
	"github.com/datalens-ai/datalens/pkg/documentstore/pgvector"
	"github.com/datalens-ai/datalens/pkg/generator"
	"github.com/datalens-ai/datalens/pkg/protocol"
	"github.com/datalens-ai/datalens/pkg/queryengine/postgres"
	"github.com/datalens-ai/datalens/pkg/reranker"
	"github.com/datalens-ai/datalens/pkg/routing"
)

// NewDependencies wires the node collaborators. A vector database URL selects
// the pgvector document store over the in-memory one; without a relational
// database URL the structured-query pathway is unavailable and queries routed
// to it fail their execution.
func NewDependencies(ctx context.Context, logger *slog.Logger, cfg config.WorkflowConfig, databaseURL, vectorURL string) protocol.Dependencies {
	deps := protocol.Dependencies{
		Reranker:  reranker.NewLexicalReranker(),
		Generator: generator.NewTemplateGenerator(),
		Routing:   routing.NewHybridRouter(cfg.Routing),
	}

	if vectorURL != "" {
		docStore, err := pgvector.Connect(ctx, vectorURL, nil)
		if err != nil {
			panic(fmt.Errorf("failed to connect document store: %w", err))
		}

		if err := docStore.EnsureSchema(ctx); err != nil {
			panic(fmt.Errorf("failed to ensure document schema: %w", err))
		}

		deps.DocumentStore = docStore

		logger.Info("Using pgvector document store")
	} else {
		deps.DocumentStore = memory.NewStore()

		logger.Info("Using in-memory document store")
	}

	if databaseURL != "" {
		engine, err := postgres.Connect(databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to connect query engine: %w", err))
		}

		deps.QueryEngine = engine

		logger.Info("Using Postgres query engine")
	} else {
		logger.Warn("No database URL configured; structured queries are unavailable")
	}

	return deps
}
