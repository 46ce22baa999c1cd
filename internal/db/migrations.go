package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      func(ctx context.Context, tx *sql.Tx, d Dialect) error
}

// migrations is the list of all migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_archive_tables",
		Up:      migrationV1,
	},
}

// RunMigrations executes all pending migrations, each in its own transaction.
func RunMigrations(ctx context.Context, database *sql.DB, d Dialect) error {
	_, err := database.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	var currentVersion int
	err = database.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		slog.Debug("running migration", "version", migration.Version, "name", migration.Name)

		tx, err := database.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(ctx, tx, d); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		_, err = tx.ExecContext(ctx,
			d.Rebind("INSERT INTO schema_version (version, applied_at) VALUES (?, CURRENT_TIMESTAMP)"),
			migration.Version,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// migrationV1 creates every archive table from the dialect's DDL.
func migrationV1(ctx context.Context, tx *sql.Tx, d Dialect) error {
	return ApplySchema(ctx, tx, d.Schema())
}

// Execer is the subset of *sql.DB and *sql.Tx needed to apply DDL.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ApplySchema executes a DDL script statement by statement.
func ApplySchema(ctx context.Context, ex Execer, ddl string) error {
	for _, stmt := range SplitStatements(ddl) {
		if _, err := ex.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
