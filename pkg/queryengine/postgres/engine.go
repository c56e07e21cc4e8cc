// Package postgres provides the SQL query engine: schema introspection and
// bounded read-only query execution against a Postgres database.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	// Registers the postgres driver.
	_ "github.com/lib/pq"

	"github.com/datalens-ai/datalens/pkg/models"
)

// maxRows bounds how many rows a single query may return to the agent.
const maxRows = 1000

// ErrNotReadOnly is returned for statements other than SELECT.
var ErrNotReadOnly = errors.New("only SELECT statements are allowed")

// Engine implements schema discovery and query execution over database/sql.
type Engine struct {
	db *sql.DB
}

func NewEngine(db *sql.DB) (*Engine, error) {
	if db == nil {
		return nil, errors.New("database handle is required")
	}

	return &Engine{db: db}, nil
}

// Connect opens a connection for the given URL.
func Connect(databaseURL string) (*Engine, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return NewEngine(db)
}

// Schema lists the public tables and their columns from information_schema.
func (e *Engine) Schema(ctx context.Context) ([]models.TableSchema, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT table_name, column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = 'public'
		ORDER BY table_name, ordinal_position`)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect schema: %w", err)
	}
	defer rows.Close()

	var (
		schemas []models.TableSchema
		current *models.TableSchema
	)

	for rows.Next() {
		var tableName, columnName, dataType string

		if err := rows.Scan(&tableName, &columnName, &dataType); err != nil {
			return nil, fmt.Errorf("failed to scan schema row: %w", err)
		}

		if current == nil || current.Name != tableName {
			schemas = append(schemas, models.TableSchema{Name: tableName})
			current = &schemas[len(schemas)-1]
		}

		current.Columns = append(current.Columns, models.ColumnSchema{
			Name: columnName,
			Type: dataType,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to introspect schema: %w", err)
	}

	return schemas, nil
}

// Execute runs one read-only query and materializes the bounded result as
// strings, the common shape the chart and answer nodes consume.
func (e *Engine) Execute(ctx context.Context, query string) (*models.TabularResult, error) {
	trimmed := strings.TrimSpace(query)
	if !strings.HasPrefix(strings.ToUpper(trimmed), "SELECT") {
		return nil, ErrNotReadOnly
	}

	rows, err := e.db.QueryContext(ctx, trimmed)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	result := &models.TabularResult{
		TableName: tableOf(trimmed),
		Columns:   columns,
	}

	values := make([]sql.NullString, len(columns))
	scanArgs := make([]any, len(columns))

	for i := range values {
		scanArgs[i] = &values[i]
	}

	for rows.Next() && result.RowCount < maxRows {
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}

		row := make([]string, len(columns))
		for i, v := range values {
			if v.Valid {
				row[i] = v.String
			}
		}

		result.Rows = append(result.Rows, row)
		result.RowCount++
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	return result, nil
}

func (e *Engine) HealthCheck(ctx context.Context) error {
	return e.db.PingContext(ctx)
}

func (e *Engine) Close() error {
	return e.db.Close()
}

// tableOf extracts the first FROM target for result labelling.
func tableOf(query string) string {
	fields := strings.Fields(query)
	for i, field := range fields {
		if strings.EqualFold(field, "FROM") && i+1 < len(fields) {
			return strings.Trim(fields[i+1], `";`)
		}
	}

	return ""
}
