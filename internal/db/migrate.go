package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

// Supported dialects.
const (
	DialectSQLite   = "sqlite3"
	DialectPostgres = "postgres"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

var migrationSets = map[string]struct {
	dir     string
	dialect goose.Dialect
}{
	DialectSQLite:   {"migrations/sqlite", goose.DialectSQLite3},
	DialectPostgres: {"migrations/postgres", goose.DialectPostgres},
}

// RunMigrations applies all pending migrations for dialect. Each call uses its
// own goose provider, so stores can be migrated concurrently.
func RunMigrations(db *sql.DB, dialect string) error {
	set, ok := migrationSets[dialect]
	if !ok {
		return fmt.Errorf("no migrations for dialect %q", dialect)
	}
	fsys, err := fs.Sub(migrationsFS, set.dir)
	if err != nil {
		return fmt.Errorf("migrations %s: %w", set.dir, err)
	}
	provider, err := goose.NewProvider(set.dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(context.Background()); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
