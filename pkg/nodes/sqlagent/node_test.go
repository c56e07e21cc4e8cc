package sqlagent

import (
	"errors"
	"testing"

	"github.com/datalens-ai/datalens/pkg/models"
	"github.com/datalens-ai/datalens/pkg/testutil"
)

const salesAggregate = "SELECT region, SUM(amount) AS total FROM sales GROUP BY region ORDER BY total DESC"

func testContext(query string) models.ExecutionContext {
	return models.ExecutionContext{
		ID:    "test-exec",
		Query: query,
		DataSources: models.DataSourceContext{
			HasStructured: true,
			Tables:        []string{"sales"},
		},
		NodeOutputs: make(map[models.NodeType]models.NodeOutput),
	}
}

func TestSQLAgentNode_Execute(t *testing.T) {
	schema, result := testutil.SalesTable()
	engine := &testutil.FakeQueryEngine{
		Tables:  []models.TableSchema{schema},
		Results: map[string]*models.TabularResult{salesAggregate: result},
	}

	node, err := NewSQLAgentNode(engine, 5, 5)
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	res, err := node.Execute(t.Context(), testContext("total sales by region"))
	if err != nil {
		t.Fatalf("Node execution failed: %v", err)
	}

	output, ok := res.Output.(*models.StructuredQueryResult)
	if !ok {
		t.Fatalf("Expected structured query result, got %T", res.Output)
	}

	if output.Degraded {
		t.Error("Confident result must not be degraded")
	}

	if output.QueryText != salesAggregate {
		t.Errorf("Expected aggregate query, got %q", output.QueryText)
	}

	if output.RowCount != 3 {
		t.Errorf("Expected 3 rows, got %d", output.RowCount)
	}

	if len(output.ReasoningSteps) != 1 {
		t.Errorf("Expected a single reasoning step, got %d", len(output.ReasoningSteps))
	}

	if output.Answer == "" {
		t.Error("Expected an answer summarizing the result")
	}
}

func TestSQLAgentNode_Execute_RecoversFromQueryFailure(t *testing.T) {
	schema, result := testutil.SalesTable()
	engine := &testutil.FakeQueryEngine{
		Tables: []models.TableSchema{schema},
		Results: map[string]*models.TabularResult{
			// The aggregate is not scripted, so attempt one fails and the
			// agent falls back to the plain sample query.
			"SELECT * FROM sales LIMIT 10": result,
		},
	}

	node, err := NewSQLAgentNode(engine, 5, 5)
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	res, err := node.Execute(t.Context(), testContext("total sales by region"))
	if err != nil {
		t.Fatalf("Per-iteration failure must not fail the node: %v", err)
	}

	output := res.Output.(*models.StructuredQueryResult)

	if output.Degraded {
		t.Error("Recovered result must not be degraded")
	}

	if len(output.ReasoningSteps) != 2 {
		t.Fatalf("Expected 2 reasoning steps, got %d", len(output.ReasoningSteps))
	}

	if output.ReasoningSteps[0].Observation == "" {
		t.Error("Failed attempt must record its observation")
	}
}

func TestSQLAgentNode_Execute_CapExhaustionDegrades(t *testing.T) {
	schema, _ := testutil.SalesTable()
	empty := &models.TabularResult{TableName: "sales", Columns: []string{"region", "amount"}}
	engine := &testutil.FakeQueryEngine{
		Tables: []models.TableSchema{schema},
		Results: map[string]*models.TabularResult{
			salesAggregate:                            empty,
			"SELECT * FROM sales LIMIT 10":            empty,
			"SELECT COUNT(*) AS row_count FROM sales": empty,
		},
	}

	node, err := NewSQLAgentNode(engine, 5, 5)
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	res, err := node.Execute(t.Context(), testContext("total sales by region"))
	if err != nil {
		t.Fatalf("Cap exhaustion with valid observations must complete, got: %v", err)
	}

	output := res.Output.(*models.StructuredQueryResult)

	if !output.Degraded {
		t.Error("Expected degraded flag after cap exhaustion")
	}

	if len(output.ReasoningSteps) != 5 {
		t.Errorf("Expected reasoning trace to hit the cap of 5, got %d", len(output.ReasoningSteps))
	}

	if output.Answer == "" {
		t.Error("Expected a best-effort answer from the last observation")
	}
}

func TestSQLAgentNode_Execute_AllAttemptsFail(t *testing.T) {
	schema, _ := testutil.SalesTable()
	engine := &testutil.FakeQueryEngine{
		Tables:       []models.TableSchema{schema},
		ErrByDefault: errors.New("syntax error"),
	}

	node, err := NewSQLAgentNode(engine, 3, 5)
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	_, err = node.Execute(t.Context(), testContext("total sales by region"))
	if err == nil {
		t.Fatal("Expected node failure when no attempt yields a result")
	}

	if models.FailureKind(err) != models.ErrKindStructuredQuery {
		t.Errorf("Expected structured_query_error, got %s", models.FailureKind(err))
	}

	if got := len(engine.ExecutedQueries()); got != 3 {
		t.Errorf("Expected exactly 3 attempts, got %d", got)
	}
}

func TestSQLAgentNode_Execute_SchemaUnavailable(t *testing.T) {
	engine := &testutil.FakeQueryEngine{SchemaErr: errors.New("connection refused")}

	node, err := NewSQLAgentNode(engine, 5, 5)
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	_, err = node.Execute(t.Context(), testContext("q"))
	if models.FailureKind(err) != models.ErrKindStructuredQuery {
		t.Fatalf("Expected structured_query_error for schema failure, got %v", err)
	}
}

func TestSQLAgentNode_Execute_NoTables(t *testing.T) {
	engine := &testutil.FakeQueryEngine{}

	node, err := NewSQLAgentNode(engine, 5, 5)
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	_, err = node.Execute(t.Context(), testContext("q"))
	if models.FailureKind(err) != models.ErrKindStructuredQuery {
		t.Fatalf("Expected structured_query_error for empty schema, got %v", err)
	}
}

func TestSQLAgentNode_Execute_SampleRowsBounded(t *testing.T) {
	schema, _ := testutil.SalesTable()
	wide := &models.TabularResult{
		TableName: "sales",
		Columns:   []string{"region", "amount"},
		RowCount:  8,
		Rows: [][]string{
			{"a", "1"}, {"b", "2"}, {"c", "3"}, {"d", "4"},
			{"e", "5"}, {"f", "6"}, {"g", "7"}, {"h", "8"},
		},
	}
	engine := &testutil.FakeQueryEngine{
		Tables:  []models.TableSchema{schema},
		Results: map[string]*models.TabularResult{salesAggregate: wide},
	}

	node, err := NewSQLAgentNode(engine, 5, 5)
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	res, err := node.Execute(t.Context(), testContext("total sales by region"))
	if err != nil {
		t.Fatalf("Node execution failed: %v", err)
	}

	output := res.Output.(*models.StructuredQueryResult)

	if len(output.SampleRows) != 5 {
		t.Errorf("Expected sample rows bounded to 5, got %d", len(output.SampleRows))
	}

	if output.RowCount != 8 {
		t.Errorf("Row count must reflect the full result, got %d", output.RowCount)
	}
}

func TestNewSQLAgentNode_Validation(t *testing.T) {
	if _, err := NewSQLAgentNode(nil, 5, 5); err == nil {
		t.Error("Expected error for missing query engine")
	}

	if _, err := NewSQLAgentNode(&testutil.FakeQueryEngine{}, 0, 5); err == nil {
		t.Error("Expected error for zero iteration cap")
	}
}
