package devbackend

import (
	"context"
	"slices"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// TablesOutput is the response for listing tables.
type TablesOutput struct {
	Body struct {
		Tables []string `json:"tables" doc:"Table names"`
	}
}

// QueryInput is a read-only SQL statement.
type QueryInput struct {
	Body struct {
		Query string `json:"query" required:"true" minLength:"1" doc:"SELECT, SHOW, DESCRIBE or SUMMARIZE statement" example:"SELECT * FROM vineyards"`
	}
}

// QueryOutput is the response for SQL queries.
type QueryOutput struct {
	Body struct {
		Columns []string         `json:"columns" doc:"Column names"`
		Rows    []map[string]any `json:"rows" doc:"Query results"`
		Count   int              `json:"count" doc:"Number of rows returned"`
	}
}

var readOnlyVerbs = []string{"select", "show", "describe", "summarize", "with", "from"}

func (b *Backend) registerInspect(api huma.API) {
	huma.Get(api, "/tables", b.ListTables, opID("list-tables", "db"))
	huma.Post(api, "/query", b.Query, opID("query", "db"))
}

// ListTables returns the DuckDB tables.
func (b *Backend) ListTables(ctx context.Context, input *struct{}) (*TablesOutput, error) {
	rows, err := b.store.db.QueryContext(ctx, "SHOW TABLES")
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list tables", err)
	}
	defer rows.Close()

	out := &TablesOutput{}
	out.Body.Tables = []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err == nil {
			out.Body.Tables = append(out.Body.Tables, name)
		}
	}
	return out, nil
}

// Query runs a read-only statement against the backend database.
func (b *Backend) Query(ctx context.Context, input *QueryInput) (*QueryOutput, error) {
	q := strings.TrimSuffix(strings.TrimSpace(input.Body.Query), ";")
	if strings.Contains(q, ";") {
		return nil, huma.Error400BadRequest("only a single statement is allowed")
	}
	verb, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(q)), " ")
	if !slices.Contains(readOnlyVerbs, verb) {
		return nil, huma.Error400BadRequest("only read-only statements are allowed")
	}

	rows, err := b.store.db.QueryContext(ctx, q)
	if err != nil {
		return nil, huma.Error400BadRequest("Query failed: " + err.Error())
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to get columns", err)
	}

	out := &QueryOutput{}
	out.Body.Columns = columns
	out.Body.Rows = []map[string]any{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, huma.Error500InternalServerError("Failed to read row", err)
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		out.Body.Rows = append(out.Body.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, huma.Error500InternalServerError("Failed to read rows", err)
	}
	out.Body.Count = len(out.Body.Rows)
	return out, nil
}
