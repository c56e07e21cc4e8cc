// Package web provides HTTP request and response types for the query API.
package web

import "github.com/datalens-ai/datalens/pkg/models"

// SubmitQueryRequest represents the request body for submitting a query.
type SubmitQueryRequest struct {
	Query       string             `json:"query"        validate:"required,min=3"`
	DataSources DataSourcesRequest `json:"data_sources"`
}

// DataSourcesRequest declares which source kinds are registered for the query.
type DataSourcesRequest struct {
	HasDocuments  bool     `json:"has_documents"`
	HasStructured bool     `json:"has_structured"`
	CorpusID      string   `json:"corpus_id,omitempty"`
	Tables        []string `json:"tables,omitempty"`
}

// ToModel converts the request into the domain source context.
func (r DataSourcesRequest) ToModel() models.DataSourceContext {
	return models.DataSourceContext{
		HasDocuments:  r.HasDocuments,
		HasStructured: r.HasStructured,
		CorpusID:      r.CorpusID,
		Tables:        r.Tables,
	}
}

// SubmitQueryResponse represents the response for an accepted query.
type SubmitQueryResponse struct {
	ExecutionID string `json:"execution_id"`
	Status      string `json:"status"`
}

// ListExecutionsResponse wraps the execution collection.
type ListExecutionsResponse struct {
	Executions []*models.Execution `json:"executions"`
	TotalCount int                 `json:"total_count"`
}
