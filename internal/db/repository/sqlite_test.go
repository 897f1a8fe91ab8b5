package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "scouthub/internal/db"
	"scouthub/internal/domain"
	"scouthub/internal/normalize"
	"scouthub/internal/schema"
)

func setupSQLiteRepo(t *testing.T) (*SQLiteRecordRepo, *schema.Descriptor) {
	t.Helper()
	writeDB, _ := internaldb.OpenTestSQLite(t)
	desc := schema.Current()
	return NewSQLiteRecordRepo(writeDB, desc), desc
}

func TestSQLiteRecordRepo_Insert(t *testing.T) {
	repo, desc := setupSQLiteRepo(t)
	ctx := context.Background()

	rec, err := normalize.New(desc).Normalize(map[string]any{
		"team": 254, "match_number": 3, "auto_climb": "on", "alliance": "blue", "comments": "'; DROP TABLE match_scouting; --",
	})
	require.NoError(t, err)

	status, err := repo.Insert(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInserted, status)

	var (
		team      int64
		climb     bool
		total     int64
		comments  string
		createdAt string
	)
	err = repo.db.QueryRowContext(ctx,
		`SELECT team, auto_climb, total_points, comments, created_at FROM match_scouting`).
		Scan(&team, &climb, &total, &comments, &createdAt)
	require.NoError(t, err)
	assert.Equal(t, int64(254), team)
	assert.True(t, climb)
	assert.Equal(t, int64(15), total)
	assert.Equal(t, "'; DROP TABLE match_scouting; --", comments)
	assert.NotEmpty(t, createdAt)
}

func TestSQLiteRecordRepo_ConstraintViolationRollsBack(t *testing.T) {
	repo, _ := setupSQLiteRepo(t)
	ctx := context.Background()

	_, err := repo.Insert(ctx, domain.ScoutingRecord{"team": int64(1), "match_number": int64(1), "alliance": "green"})
	require.Error(t, err)

	var sinkErr *domain.SinkError
	require.ErrorAs(t, err, &sinkErr)
	assert.Equal(t, "db", sinkErr.Sink)
	assert.Contains(t, err.Error(), "CHECK constraint failed")

	var n int
	require.NoError(t, repo.db.QueryRowContext(ctx, `SELECT count(*) FROM match_scouting`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestSQLiteRecordRepo_UnknownKeysIgnored(t *testing.T) {
	repo, _ := setupSQLiteRepo(t)

	_, err := repo.Insert(context.Background(), domain.ScoutingRecord{"no_such_column": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record has no match_scouting columns")
}

func TestSQLiteRecordRepo_ClosedDatabase(t *testing.T) {
	repo, _ := setupSQLiteRepo(t)
	require.NoError(t, repo.db.Close())

	_, err := repo.Insert(context.Background(), domain.ScoutingRecord{"team": int64(1), "match_number": int64(1)})
	var sinkErr *domain.SinkError
	require.ErrorAs(t, err, &sinkErr)
}

func TestSQLiteRecordRepo_ListColumnsMatchesDescriptor(t *testing.T) {
	repo, desc := setupSQLiteRepo(t)
	ctx := context.Background()

	cols, err := repo.ListColumns(ctx, desc.Table)
	require.NoError(t, err)
	assert.Equal(t, "id", cols[0])

	require.NoError(t, desc.Verify(ctx, repo), "migrations must match the current descriptor")

	older, err := schema.Load(2)
	require.NoError(t, err)
	var drift *schema.DriftError
	require.ErrorAs(t, older.Verify(ctx, repo), &drift)
	assert.NotEmpty(t, drift.Unexpected)

	missing, err := repo.ListColumns(ctx, "no_such_table")
	require.NoError(t, err)
	assert.Empty(t, missing)
}
