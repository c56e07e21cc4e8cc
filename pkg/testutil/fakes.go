// Package testutil provides deterministic fake collaborators for workflow tests.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/datalens-ai/datalens/pkg/models"
	"github.com/datalens-ai/datalens/pkg/protocol"
)

// FakeDocumentStore serves a fixed corpus ordered by descending score.
type FakeDocumentStore struct {
	Documents []models.RetrievedDocument
	Err       error
}

func (f *FakeDocumentStore) Search(_ context.Context, _ string, topK int) ([]models.RetrievedDocument, error) {
	if f.Err != nil {
		return nil, f.Err
	}

	if topK > len(f.Documents) {
		topK = len(f.Documents)
	}

	out := make([]models.RetrievedDocument, topK)
	copy(out, f.Documents[:topK])

	return out, nil
}

// FakeReranker keeps the first topK candidates and stamps descending rerank
// scores, or fails when Err is set.
type FakeReranker struct {
	Err error
}

func (f *FakeReranker) Score(_ context.Context, _ string, candidates []models.RetrievedDocument, topK int) ([]models.RetrievedDocument, error) {
	if f.Err != nil {
		return nil, f.Err
	}

	if topK > len(candidates) {
		topK = len(candidates)
	}

	out := make([]models.RetrievedDocument, topK)
	copy(out, candidates[:topK])

	for i := range out {
		score := float64(topK - i)
		out[i].RerankScore = &score
	}

	return out, nil
}

// FakeQueryEngine returns a scripted result per query, or ErrByDefault when a
// query has no script entry.
type FakeQueryEngine struct {
	Tables       []models.TableSchema
	SchemaErr    error
	Results      map[string]*models.TabularResult
	ErrByDefault error

	mu       sync.Mutex
	Executed []string
}

func (f *FakeQueryEngine) Schema(_ context.Context) ([]models.TableSchema, error) {
	if f.SchemaErr != nil {
		return nil, f.SchemaErr
	}

	return f.Tables, nil
}

func (f *FakeQueryEngine) Execute(_ context.Context, query string) (*models.TabularResult, error) {
	f.mu.Lock()
	f.Executed = append(f.Executed, query)
	f.mu.Unlock()

	if result, ok := f.Results[query]; ok {
		return result, nil
	}

	if f.ErrByDefault != nil {
		return nil, f.ErrByDefault
	}

	return nil, errors.New("no scripted result for query: " + query)
}

// ExecutedQueries returns a copy of the executed query log.
func (f *FakeQueryEngine) ExecutedQueries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.Executed...)
}

// FakeGenerator yields fixed fragments and then terminates the stream.
type FakeGenerator struct {
	Fragments []string
	Err       error

	mu      sync.Mutex
	Prompts []string
}

func (f *FakeGenerator) Generate(_ context.Context, prompt string) (protocol.FragmentStream, error) {
	f.mu.Lock()
	f.Prompts = append(f.Prompts, prompt)
	f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}

	return &sliceStream{fragments: f.Fragments}, nil
}

type sliceStream struct {
	fragments []string
	pos       int
}

func (s *sliceStream) Recv(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if s.pos >= len(s.fragments) {
		return "", io.EOF
	}

	fragment := s.fragments[s.pos]
	s.pos++

	return fragment, nil
}

func (s *sliceStream) Close() error { return nil }

// WordStream splits text into word fragments; handy for streaming tests.
func WordStream(text string) []string {
	words := strings.Fields(text)
	fragments := make([]string, len(words))

	for i, w := range words {
		if i == len(words)-1 {
			fragments[i] = w
		} else {
			fragments[i] = w + " "
		}
	}

	return fragments
}

// SalesTable is a small structured fixture shared by agent and chart tests.
func SalesTable() (models.TableSchema, *models.TabularResult) {
	schema := models.TableSchema{
		Name: "sales",
		Columns: []models.ColumnSchema{
			{Name: "region", Type: "text"},
			{Name: "amount", Type: "numeric"},
		},
	}

	result := &models.TabularResult{
		TableName: "sales",
		Columns:   []string{"region", "amount"},
		RowCount:  3,
		Rows: [][]string{
			{"north", "120.5"},
			{"south", "98.0"},
			{"west", "143.25"},
		},
	}

	return schema, result
}

// Corpus builds n retrieved documents with descending raw scores.
func Corpus(n int) []models.RetrievedDocument {
	docs := make([]models.RetrievedDocument, n)
	for i := range docs {
		docs[i] = models.RetrievedDocument{
			SourcePath:     fmt.Sprintf("docs/handbook-%02d.md", i+1),
			RawScore:       1.0 - float64(i)*0.05,
			ContentPreview: fmt.Sprintf("section %d of the company handbook", i+1),
		}
	}

	return docs
}
