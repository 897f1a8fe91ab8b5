// Package ddl builds the few SQL statements whose shape depends on the schema
// descriptor. Every identifier is validated and quoted; values are never
// interpolated.
package ddl

import (
	"fmt"
	"strings"
)

// NamedInsert returns an INSERT with one named placeholder per column:
//
//	INSERT INTO "t" ("a", "b") VALUES (@a, @b)
//
// The @name form binds with sql.Named on SQLite and pgx.NamedArgs on Postgres.
func NamedInsert(table string, columns []string) (string, error) {
	if err := ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("at least one column is required")
	}
	quoted := make([]string, len(columns))
	params := make([]string, len(columns))
	for i, c := range columns {
		if err := ValidateIdentifier(c); err != nil {
			return "", fmt.Errorf("invalid column name: %w", err)
		}
		quoted[i] = QuoteIdentifier(c)
		params[i] = "@" + c
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		QuoteIdentifier(table), strings.Join(quoted, ", "), strings.Join(params, ", ")), nil
}

// CreateCSVView returns a DuckDB statement exposing a CSV file as a view:
//
//	CREATE OR REPLACE VIEW "t" AS SELECT * FROM read_csv_auto('path', header = true)
func CreateCSVView(view, sourcePath string) (string, error) {
	if err := ValidateIdentifier(view); err != nil {
		return "", fmt.Errorf("invalid view name: %w", err)
	}
	if sourcePath == "" {
		return "", fmt.Errorf("source path is required")
	}
	return fmt.Sprintf("CREATE OR REPLACE VIEW %s AS SELECT * FROM read_csv_auto(%s, header = true)",
		QuoteIdentifier(view), QuoteLiteral(sourcePath)), nil
}

// ColumnDef is a column name with a DuckDB type.
type ColumnDef struct {
	Name string
	Type string
}

// CreateEmptyView returns a DuckDB statement for a zero-row view with typed
// columns, used when the CSV file has not been written yet.
//
//	CREATE OR REPLACE VIEW "t" AS SELECT CAST(NULL AS BIGINT) AS "a" WHERE false
func CreateEmptyView(view string, columns []ColumnDef) (string, error) {
	if err := ValidateIdentifier(view); err != nil {
		return "", fmt.Errorf("invalid view name: %w", err)
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("at least one column is required")
	}
	cols := make([]string, len(columns))
	for i, c := range columns {
		if err := ValidateIdentifier(c.Name); err != nil {
			return "", fmt.Errorf("invalid column name: %w", err)
		}
		if err := ValidateIdentifier(c.Type); err != nil {
			return "", fmt.Errorf("invalid column type: %w", err)
		}
		cols[i] = fmt.Sprintf("CAST(NULL AS %s) AS %s", strings.ToUpper(c.Type), QuoteIdentifier(c.Name))
	}
	return fmt.Sprintf("CREATE OR REPLACE VIEW %s AS SELECT %s WHERE false",
		QuoteIdentifier(view), strings.Join(cols, ", ")), nil
}
