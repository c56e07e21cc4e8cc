package models

// DataSourceContext describes the data sources registered for a query at
// submission time. Capability flags drive the routing policy; the handles
// tell collaborators where to look.
type DataSourceContext struct {
	HasDocuments  bool     `json:"has_documents"`
	HasStructured bool     `json:"has_structured"`
	CorpusID      string   `json:"corpus_id,omitempty"` // document corpus handle
	Tables        []string `json:"tables,omitempty"`    // structured tables available
}
