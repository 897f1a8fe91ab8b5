package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2" // duckdb driver

	"scouthub/internal/ddl"
	"scouthub/internal/domain"
	"scouthub/internal/schema"
)

// CSVLocker gives exclusive access to the CSV file. Implemented by csvsink.Sink.
type CSVLocker interface {
	View(fn func(path string, exists bool) error) error
}

var duckTypes = map[string]string{
	schema.TypeInteger: "BIGINT",
	schema.TypeReal:    "DOUBLE",
	schema.TypeBoolean: "BOOLEAN",
	schema.TypeText:    "VARCHAR",
}

// CSVExecutor answers questions from the flat file using an in-memory DuckDB
// database. The file is exposed as a view named after the descriptor table and
// read while the sink lock is held.
type CSVExecutor struct {
	db      *sql.DB
	csv     CSVLocker
	desc    *schema.Descriptor
	maxRows int
}

// NewCSVExecutor opens an in-memory DuckDB database for querying the CSV file.
func NewCSVExecutor(csv CSVLocker, desc *schema.Descriptor, maxRows int) (*CSVExecutor, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	db.SetMaxOpenConns(1)
	return &CSVExecutor{db: db, csv: csv, desc: desc, maxRows: maxRowsOrDefault(maxRows)}, nil
}

// Close releases the DuckDB database.
func (e *CSVExecutor) Close() error { return e.db.Close() }

// Dialect implements domain.QueryExecutor.
func (e *CSVExecutor) Dialect() string { return DialectDuckDB }

// Execute implements domain.QueryExecutor.
func (e *CSVExecutor) Execute(ctx context.Context, q *domain.ValidatedQuery) (*domain.QueryResult, error) {
	var res *domain.QueryResult
	err := e.csv.View(func(path string, exists bool) error {
		view, err := e.viewStatement(path, exists)
		if err != nil {
			return err
		}
		if _, err := e.db.ExecContext(ctx, view); err != nil {
			return fmt.Errorf("expose csv: %w", err)
		}
		rows, err := e.db.QueryContext(ctx, q.SQL)
		if err != nil {
			return err
		}
		defer rows.Close() //nolint:errcheck
		res, err = scanRows(rows, e.maxRows)
		return err
	})
	if err != nil {
		return nil, execErr(q, err)
	}
	return res, nil
}

func (e *CSVExecutor) viewStatement(path string, exists bool) (string, error) {
	if exists {
		return ddl.CreateCSVView(e.desc.Table, path)
	}
	cols := make([]ddl.ColumnDef, 0, len(e.desc.Columns))
	for _, c := range e.desc.Columns {
		t, ok := duckTypes[c.Type]
		if !ok {
			return "", errors.New("unsupported column type " + c.Type)
		}
		cols = append(cols, ddl.ColumnDef{Name: c.Name, Type: t})
	}
	return ddl.CreateEmptyView(e.desc.Table, cols)
}
