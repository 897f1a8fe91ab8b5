// Package engine executes validated read-only queries against the relational
// store or the CSV file and returns rows as column-keyed maps.
package engine

import (
	"database/sql"
	"math/big"

	"scouthub/internal/domain"
)

// DefaultMaxRows caps result sets when no limit is configured.
const DefaultMaxRows = 500

// Dialect names used in generation prompts.
const (
	DialectSQLite   = "SQLite"
	DialectPostgres = "PostgreSQL"
	DialectDuckDB   = "DuckDB"
)

// Compile-time checks.
var (
	_ domain.QueryExecutor = (*SQLiteExecutor)(nil)
	_ domain.QueryExecutor = (*PostgresExecutor)(nil)
	_ domain.QueryExecutor = (*CSVExecutor)(nil)
)

func maxRowsOrDefault(n int) int {
	if n <= 0 {
		return DefaultMaxRows
	}
	return n
}

func execErr(q *domain.ValidatedQuery, err error) error {
	return &domain.ExecError{Query: q.SQL, Err: err}
}

// scanRows reads at most maxRows rows and reports whether more were available.
func scanRows(rows *sql.Rows, maxRows int) (*domain.QueryResult, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	res := &domain.QueryResult{Columns: cols, Rows: []map[string]any{}}
	for rows.Next() {
		if len(res.Rows) == maxRows {
			res.Truncated = true
			break
		}
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		res.Rows = append(res.Rows, toRow(cols, vals))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	res.RowCount = len(res.Rows)
	return res, nil
}

func toRow(cols []string, vals []any) map[string]any {
	row := make(map[string]any, len(cols))
	for i, c := range cols {
		row[c] = jsonValue(vals[i])
	}
	return row
}

// jsonValue converts driver values into types that serialize cleanly.
func jsonValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case *big.Int:
		if x.IsInt64() {
			return x.Int64()
		}
		return x.String()
	case interface{ Float64() float64 }:
		return x.Float64()
	default:
		return v
	}
}
