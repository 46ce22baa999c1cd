package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Open connects to the archive database and brings its schema up to date.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, Dialect, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, 0, err
	}

	if dialect == SQLite && dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, 0, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	database, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open database: %w", err)
	}

	if dialect == SQLite {
		// One connection: keeps ":memory:" databases alive and pins the
		// foreign_keys pragma to the connection every statement uses.
		database.SetMaxOpenConns(1)

		if _, err := database.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			database.Close()
			return nil, 0, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	if err := database.PingContext(ctx); err != nil {
		database.Close()
		return nil, 0, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := RunMigrations(ctx, database, dialect); err != nil {
		database.Close()
		return nil, 0, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return database, dialect, nil
}

// DefaultPath returns the path of the default SQLite archive.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".aspen", "aspen.db"), nil
}
