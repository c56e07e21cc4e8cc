package models

// ColumnSchema describes one column of a structured table.
type ColumnSchema struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TableSchema describes one table exposed by the query engine.
type TableSchema struct {
	Name    string         `json:"name"`
	Columns []ColumnSchema `json:"columns"`
}

// TabularResult is the outcome of executing one structured query.
type TabularResult struct {
	TableName string     `json:"table_name"`
	Columns   []string   `json:"columns"`
	RowCount  int        `json:"row_count"`
	Rows      [][]string `json:"rows"`
}

// ReasoningStep is one thought/action/observation triple of the agent loop.
type ReasoningStep struct {
	Thought     string `json:"thought"`
	Action      string `json:"action"` // the proposed query text
	Observation string `json:"observation"`
}

// StructuredQueryResult is the sql_agent node payload. SampleRows is bounded
// so event payloads stay small regardless of the real result size.
type StructuredQueryResult struct {
	QueryText      string          `json:"query_text"`
	TableName      string          `json:"table_name"`
	RowCount       int             `json:"row_count"`
	Columns        []string        `json:"columns"`
	SampleRows     [][]string      `json:"sample_rows"`
	ReasoningSteps []ReasoningStep `json:"reasoning_steps"`
	Answer         string          `json:"answer"`

	// Degraded marks a best-effort answer produced after the iteration cap
	// was reached without a confident one. Still a completed outcome.
	Degraded bool `json:"degraded,omitempty"`
}

func (o *StructuredQueryResult) Kind() NodeType { return NodeSQLAgent }
