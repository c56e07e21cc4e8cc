// Package pgvector provides the Postgres-backed document store: chunks are
// kept with their embeddings in a pgvector column and retrieved by vector
// distance.
package pgvector

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"

	"github.com/datalens-ai/datalens/pkg/models"
)

const previewLength = 160

// Store implements document retrieval over a pgxpool connection pool.
type Store struct {
	pool     *pgxpool.Pool
	embedder Embedder
}

func NewStore(pool *pgxpool.Pool, embedder Embedder) (*Store, error) {
	if pool == nil {
		return nil, errors.New("connection pool is required")
	}

	if embedder == nil {
		embedder = NewHashEmbedder()
	}

	return &Store{pool: pool, embedder: embedder}, nil
}

// Connect opens a pool for the given URL and returns a store over it.
func Connect(ctx context.Context, databaseURL string, embedder Embedder) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	return NewStore(pool, embedder)
}

// EnsureSchema creates the documents table and the pgvector extension.
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS documents (
			id BIGSERIAL PRIMARY KEY,
			source_path TEXT NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)`, EmbeddingDim),
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure document schema: %w", err)
		}
	}

	return nil
}

// Index embeds one document chunk and inserts it.
func (s *Store) Index(ctx context.Context, sourcePath, content string) error {
	embedding, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("failed to embed document %s: %w", sourcePath, err)
	}

	_, err = s.pool.Exec(ctx,
		"INSERT INTO documents (source_path, content, embedding) VALUES ($1, $2, $3)",
		sourcePath, content, pgv.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("failed to insert document %s: %w", sourcePath, err)
	}

	return nil
}

// Search returns the topK nearest chunks ordered by ascending distance to the
// query embedding. RawScore is the similarity 1/(1+distance), so the result
// set is ordered by descending raw score.
func (s *Store) Search(ctx context.Context, query string, topK int) ([]models.RetrievedDocument, error) {
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		"SELECT source_path, content, embedding <-> $1 AS distance FROM documents ORDER BY distance LIMIT $2",
		pgv.NewVector(embedding), topK)
	if err != nil {
		return nil, fmt.Errorf("similarity query failed: %w", err)
	}
	defer rows.Close()

	var results []models.RetrievedDocument

	for rows.Next() {
		var (
			sourcePath string
			content    string
			distance   float64
		)

		if err := rows.Scan(&sourcePath, &content, &distance); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}

		results = append(results, models.RetrievedDocument{
			SourcePath:     sourcePath,
			RawScore:       1 / (1 + distance),
			ContentPreview: preview(content),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("similarity query failed: %w", err)
	}

	return results, nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() {
	s.pool.Close()
}

func preview(content string) string {
	if len(content) <= previewLength {
		return content
	}

	return content[:previewLength]
}
