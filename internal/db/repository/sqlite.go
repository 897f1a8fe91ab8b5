package repository

import (
	"context"
	"database/sql"
	"fmt"

	"scouthub/internal/domain"
	"scouthub/internal/schema"
)

// SQLiteRecordRepo writes scouting records to SQLite through the write pool.
type SQLiteRecordRepo struct {
	db   *sql.DB
	desc *schema.Descriptor
}

// NewSQLiteRecordRepo creates a SQLiteRecordRepo.
func NewSQLiteRecordRepo(db *sql.DB, desc *schema.Descriptor) *SQLiteRecordRepo {
	return &SQLiteRecordRepo{db: db, desc: desc}
}

// Insert writes rec in its own transaction. Failures roll back and are not retried.
func (r *SQLiteRecordRepo) Insert(ctx context.Context, rec domain.ScoutingRecord) (domain.SinkStatus, error) {
	stmt, cols, err := insertPlan(r.desc, rec)
	if err != nil {
		return "", sinkErr(err)
	}
	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = sql.Named(c, rec[c])
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", sinkErr(fmt.Errorf("begin: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
		return "", sinkErr(fmt.Errorf("insert: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return "", sinkErr(fmt.Errorf("commit: %w", err))
	}
	return domain.StatusInserted, nil
}

// ListColumns returns the live column names of table, or nil if it does not exist.
func (r *SQLiteRecordRepo) ListColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?) ORDER BY cid`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}
