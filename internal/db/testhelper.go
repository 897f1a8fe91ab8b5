package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// OpenTestSQLite opens a migrated scouting store in t.TempDir(), checks that
// the match_scouting table exists, and closes both pools on cleanup.
func OpenTestSQLite(t *testing.T) (writeDB, readDB *sql.DB) {
	t.Helper()

	writeDB, readDB, err := OpenSQLitePair(filepath.Join(t.TempDir(), "scouting.sqlite"), 2)
	if err != nil {
		t.Fatalf("open scouting store: %v", err)
	}
	t.Cleanup(func() {
		_ = readDB.Close()
		_ = writeDB.Close()
	})

	if err := RunMigrations(writeDB, DialectSQLite); err != nil {
		t.Fatalf("migrate scouting store: %v", err)
	}
	var name string
	err = readDB.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'match_scouting'").Scan(&name)
	if err != nil {
		t.Fatalf("match_scouting missing after migrations: %v", err)
	}
	return writeDB, readDB
}
