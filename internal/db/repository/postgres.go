package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"scouthub/internal/domain"
	"scouthub/internal/schema"
)

// PostgresRecordRepo writes scouting records to Postgres. Each call opens and
// closes its own connection.
type PostgresRecordRepo struct {
	url  string
	desc *schema.Descriptor
}

// NewPostgresRecordRepo creates a PostgresRecordRepo for the given connection URL.
func NewPostgresRecordRepo(databaseURL string, desc *schema.Descriptor) *PostgresRecordRepo {
	return &PostgresRecordRepo{url: databaseURL, desc: desc}
}

// Insert writes rec in its own transaction. Failures roll back and are not retried.
func (r *PostgresRecordRepo) Insert(ctx context.Context, rec domain.ScoutingRecord) (domain.SinkStatus, error) {
	stmt, cols, err := insertPlan(r.desc, rec)
	if err != nil {
		return "", sinkErr(err)
	}
	args := make(pgx.NamedArgs, len(cols))
	for _, c := range cols {
		args[c] = rec[c]
	}

	conn, err := pgx.Connect(ctx, r.url)
	if err != nil {
		return "", sinkErr(fmt.Errorf("connect: %w", err))
	}
	defer conn.Close(context.WithoutCancel(ctx)) //nolint:errcheck

	tx, err := conn.Begin(ctx)
	if err != nil {
		return "", sinkErr(fmt.Errorf("begin: %w", err))
	}
	defer tx.Rollback(context.WithoutCancel(ctx)) //nolint:errcheck

	if _, err := tx.Exec(ctx, stmt, args); err != nil {
		return "", sinkErr(fmt.Errorf("insert: %w", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return "", sinkErr(fmt.Errorf("commit: %w", err))
	}
	return domain.StatusInserted, nil
}

// ListColumns returns the live column names of table in the current schema.
func (r *PostgresRecordRepo) ListColumns(ctx context.Context, table string) ([]string, error) {
	conn, err := pgx.Connect(ctx, r.url)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.WithoutCancel(ctx)) //nolint:errcheck

	rows, err := conn.Query(ctx, `
		SELECT column_name FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
