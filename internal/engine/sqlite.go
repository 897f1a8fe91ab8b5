package engine

import (
	"context"
	"database/sql"
	"fmt"

	"scouthub/internal/domain"
)

// SQLiteExecutor runs queries on the SQLite read pool with query_only set on
// the connection for the duration of the call.
type SQLiteExecutor struct {
	db      *sql.DB
	maxRows int
}

// NewSQLiteExecutor creates a SQLiteExecutor over the read pool.
func NewSQLiteExecutor(readDB *sql.DB, maxRows int) *SQLiteExecutor {
	return &SQLiteExecutor{db: readDB, maxRows: maxRowsOrDefault(maxRows)}
}

// Dialect implements domain.QueryExecutor.
func (e *SQLiteExecutor) Dialect() string { return DialectSQLite }

// Execute implements domain.QueryExecutor.
func (e *SQLiteExecutor) Execute(ctx context.Context, q *domain.ValidatedQuery) (*domain.QueryResult, error) {
	conn, err := e.db.Conn(ctx)
	if err != nil {
		return nil, execErr(q, fmt.Errorf("acquire connection: %w", err))
	}
	defer conn.Close() //nolint:errcheck

	if _, err := conn.ExecContext(ctx, "PRAGMA query_only = ON"); err != nil {
		return nil, execErr(q, err)
	}
	defer conn.ExecContext(context.WithoutCancel(ctx), "PRAGMA query_only = OFF") //nolint:errcheck

	rows, err := conn.QueryContext(ctx, q.SQL)
	if err != nil {
		return nil, execErr(q, err)
	}
	defer rows.Close() //nolint:errcheck

	res, err := scanRows(rows, e.maxRows)
	if err != nil {
		return nil, execErr(q, err)
	}
	return res, nil
}
