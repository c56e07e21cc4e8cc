package models

// RetrievedDocument is one ranked document returned by the document store.
type RetrievedDocument struct {
	SourcePath     string   `json:"source_path"`
	RawScore       float64  `json:"raw_score"`
	RerankScore    *float64 `json:"rerank_score,omitempty"` // nil until reranking ran
	ContentPreview string   `json:"content_preview"`
}

// RAGQueryOutput is the rag_query node payload: the full retrieved candidate
// set, the reranked subset and the answer text grounded in it.
type RAGQueryOutput struct {
	Retrieved []RetrievedDocument `json:"retrieved"`
	Reranked  []RetrievedDocument `json:"reranked"`
	Answer    string              `json:"answer"`

	// RerankDegraded is set when the reranker failed and the top of the
	// retrieved set was used unreranked.
	RerankDegraded bool `json:"rerank_degraded,omitempty"`
}

func (o *RAGQueryOutput) Kind() NodeType { return NodeRAGQuery }
