package repository

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"entgo.io/ent/dialect"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

func newMigrationProvider(db *DB) (*goose.Provider, error) {
	var (
		gd  goose.Dialect
		dir string
	)
	switch db.Dialect() {
	case dialect.Postgres:
		gd, dir = goose.DialectPostgres, "migrations/postgres"
	case dialect.SQLite:
		gd, dir = goose.DialectSQLite3, "migrations/sqlite"
	default:
		return nil, fmt.Errorf("no migrations for dialect %q", db.Dialect())
	}
	fsys, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return nil, err
	}
	return goose.NewProvider(gd, db.SQL(), fsys)
}

// Migrate applies every pending schema migration.
func Migrate(ctx context.Context, db *DB, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	p, err := newMigrationProvider(db)
	if err != nil {
		return fmt.Errorf("migration provider: %w", err)
	}
	results, err := p.Up(ctx)
	if err != nil {
		logger.Error("db.migrate.failed", "error", err)
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, r := range results {
		logger.Info("db.migrate.applied",
			"version", r.Source.Version,
			"path", r.Source.Path,
			"elapsed_ms", r.Duration.Milliseconds(),
		)
	}
	return nil
}

// MigrationVersion reports the current schema version.
func MigrationVersion(ctx context.Context, db *DB) (int64, error) {
	p, err := newMigrationProvider(db)
	if err != nil {
		return 0, err
	}
	return p.GetDBVersion(ctx)
}
