// Package sqlagent provides the structured-query node: a bounded
// reason-act-observe loop that proposes queries against the query engine
// until it has an answer or runs out of iterations.
package sqlagent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/datalens-ai/datalens/pkg/models"
	"github.com/datalens-ai/datalens/pkg/protocol"
)

type SQLAgentNode struct {
	engine         protocol.QueryEngine
	iterationCap   int
	sampleRowLimit int
}

func NewSQLAgentNode(engine protocol.QueryEngine, iterationCap, sampleRowLimit int) (*SQLAgentNode, error) {
	if engine == nil {
		return nil, errors.New("query engine is required")
	}

	if iterationCap < 1 {
		return nil, fmt.Errorf("iteration cap must be at least 1, got %d", iterationCap)
	}

	return &SQLAgentNode{
		engine:         engine,
		iterationCap:   iterationCap,
		sampleRowLimit: sampleRowLimit,
	}, nil
}

func (n *SQLAgentNode) ID() models.NodeType {
	return models.NodeSQLAgent
}

// Execute runs the agent loop. Per-iteration query failures are recorded as
// observations and the loop continues; only schema failure or cap exhaustion
// with no valid result at all is node-fatal. Reaching the cap with a valid
// but unconfident result is a degraded success, not an error.
func (n *SQLAgentNode) Execute(ctx context.Context, execCtx models.ExecutionContext) (*models.NodeResult, error) {
	schema, err := n.engine.Schema(ctx)
	if err != nil {
		return nil, models.NewNodeFailure(models.NodeSQLAgent, models.ErrKindStructuredQuery, "failed to read schema", err)
	}

	if len(schema) == 0 {
		return nil, models.NewNodeFailure(models.NodeSQLAgent, models.ErrKindStructuredQuery, "no tables registered", nil)
	}

	table := pickTable(schema, execCtx.Query, execCtx.DataSources.Tables)

	var (
		steps      []models.ReasoningStep
		lastResult *models.TabularResult
		lastQuery  string
		lastErr    error
		confident  bool
	)

	for iteration := 0; iteration < n.iterationCap; iteration++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		queryText := n.proposeQuery(iteration, table, lastErr)

		step := models.ReasoningStep{
			Thought: thoughtFor(iteration, table.Name, lastErr),
			Action:  queryText,
		}

		result, err := n.engine.Execute(ctx, queryText)
		if err != nil {
			step.Observation = "query failed: " + err.Error()
			steps = append(steps, step)
			lastErr = err

			continue
		}

		lastResult = result
		lastQuery = queryText
		lastErr = nil
		step.Observation = fmt.Sprintf("returned %d row(s) from %s", result.RowCount, result.TableName)
		steps = append(steps, step)

		if result.RowCount > 0 {
			confident = true

			break
		}
	}

	if lastResult == nil {
		return nil, models.NewNodeFailure(models.NodeSQLAgent, models.ErrKindStructuredQuery,
			fmt.Sprintf("iteration cap (%d) exhausted with no valid answer", n.iterationCap), lastErr)
	}

	output := &models.StructuredQueryResult{
		QueryText:      lastQuery,
		TableName:      lastResult.TableName,
		RowCount:       lastResult.RowCount,
		Columns:        lastResult.Columns,
		SampleRows:     sampleRows(lastResult.Rows, n.sampleRowLimit),
		ReasoningSteps: steps,
		Degraded:       !confident,
	}
	output.Answer = composeAnswer(lastResult, confident)

	return &models.NodeResult{
		NodeID: models.NodeSQLAgent,
		Output: output,
	}, nil
}

// pickTable prefers a table mentioned in the query, then a registered table,
// then the first table of the schema.
func pickTable(schema []models.TableSchema, query string, registered []string) models.TableSchema {
	normalized := strings.ToLower(query)

	for _, table := range schema {
		if strings.Contains(normalized, strings.ToLower(table.Name)) {
			return table
		}
	}

	for _, name := range registered {
		for _, table := range schema {
			if strings.EqualFold(table.Name, name) {
				return table
			}
		}
	}

	return schema[0]
}

// proposeQuery is the deterministic refinement ladder: aggregate first, then
// a plain sample, then a bare count as the safest fallback.
func (n *SQLAgentNode) proposeQuery(iteration int, table models.TableSchema, lastErr error) string {
	if iteration == 0 && lastErr == nil {
		if cat, num, ok := aggregationColumns(table); ok {
			return fmt.Sprintf("SELECT %s, SUM(%s) AS total FROM %s GROUP BY %s ORDER BY total DESC",
				cat, num, table.Name, cat)
		}
	}

	if iteration <= 1 {
		return fmt.Sprintf("SELECT * FROM %s LIMIT %d", table.Name, n.sampleRowLimit*2)
	}

	return fmt.Sprintf("SELECT COUNT(*) AS row_count FROM %s", table.Name)
}

func thoughtFor(iteration int, tableName string, lastErr error) string {
	switch {
	case iteration == 0:
		return fmt.Sprintf("the query looks aggregable; try an aggregate over table %s", tableName)
	case lastErr != nil:
		return "previous query failed; fall back to a simpler shape"
	default:
		return "previous query returned nothing useful; broaden the selection"
	}
}

var numericTypes = map[string]bool{
	"integer": true, "bigint": true, "smallint": true, "int": true,
	"numeric": true, "decimal": true, "real": true, "double precision": true, "float": true,
}

// aggregationColumns finds a categorical/numeric column pair for a GROUP BY.
func aggregationColumns(table models.TableSchema) (categorical, numeric string, ok bool) {
	for _, col := range table.Columns {
		if numericTypes[strings.ToLower(col.Type)] && numeric == "" {
			numeric = col.Name
		} else if categorical == "" && !numericTypes[strings.ToLower(col.Type)] {
			categorical = col.Name
		}
	}

	return categorical, numeric, categorical != "" && numeric != ""
}

func sampleRows(rows [][]string, limit int) [][]string {
	if len(rows) <= limit {
		return rows
	}

	return rows[:limit]
}

func composeAnswer(result *models.TabularResult, confident bool) string {
	if !confident {
		return fmt.Sprintf("Best-effort answer: the last executed query against table %s returned %d row(s); "+
			"no confident result was found within the iteration budget.", result.TableName, result.RowCount)
	}

	answer := fmt.Sprintf("The query against table %s returned %d row(s).", result.TableName, result.RowCount)

	if len(result.Rows) > 0 && len(result.Columns) > 0 {
		pairs := make([]string, 0, len(result.Columns))
		for i, col := range result.Columns {
			if i < len(result.Rows[0]) {
				pairs = append(pairs, col+"="+result.Rows[0][i])
			}
		}

		answer += " Leading row: " + strings.Join(pairs, ", ") + "."
	}

	return answer
}
