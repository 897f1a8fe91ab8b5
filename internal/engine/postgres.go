package engine

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"scouthub/internal/domain"
)

// PostgresExecutor runs queries inside a read-only transaction on a connection
// opened for the call.
type PostgresExecutor struct {
	url     string
	maxRows int
}

// NewPostgresExecutor creates a PostgresExecutor for the given connection URL.
func NewPostgresExecutor(databaseURL string, maxRows int) *PostgresExecutor {
	return &PostgresExecutor{url: databaseURL, maxRows: maxRowsOrDefault(maxRows)}
}

// Dialect implements domain.QueryExecutor.
func (e *PostgresExecutor) Dialect() string { return DialectPostgres }

// Execute implements domain.QueryExecutor.
func (e *PostgresExecutor) Execute(ctx context.Context, q *domain.ValidatedQuery) (*domain.QueryResult, error) {
	conn, err := pgx.Connect(ctx, e.url)
	if err != nil {
		return nil, execErr(q, fmt.Errorf("connect: %w", err))
	}
	defer conn.Close(context.WithoutCancel(ctx)) //nolint:errcheck

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, execErr(q, fmt.Errorf("begin: %w", err))
	}
	defer tx.Rollback(context.WithoutCancel(ctx)) //nolint:errcheck

	rows, err := tx.Query(ctx, q.SQL)
	if err != nil {
		return nil, execErr(q, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}

	res := &domain.QueryResult{Columns: cols, Rows: []map[string]any{}}
	for rows.Next() {
		if len(res.Rows) == e.maxRows {
			res.Truncated = true
			break
		}
		vals, err := rows.Values()
		if err != nil {
			return nil, execErr(q, err)
		}
		for i, v := range vals {
			vals[i] = pgValue(v)
		}
		res.Rows = append(res.Rows, toRow(cols, vals))
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, execErr(q, err)
	}
	res.RowCount = len(res.Rows)
	return res, nil
}

// pgValue turns NUMERIC results (AVG, SUM over BIGINT) into float64.
func pgValue(v any) any {
	n, ok := v.(pgtype.Numeric)
	if !ok {
		return v
	}
	if !n.Valid {
		return nil
	}
	f, err := n.Float64Value()
	if err != nil || !f.Valid {
		return nil
	}
	return f.Float64
}
