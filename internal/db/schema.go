package db

import (
	"bufio"
	_ "embed"
	"strings"
)

// The DDL files are the single source of truth for the archive schema. Tests
// load them through SQLiteSchema() rather than declaring tables of their own,
// so a column referenced by the store but missing here fails immediately with
// "no such column".
//
// Keep both dialects in sync with internal/catalog/catalog.yaml; the catalog
// tests compare every declared column against the SQLite schema.

//go:embed sql/sqlite.sql
var sqliteSchema string

//go:embed sql/postgres.sql
var postgresSchema string

// SQLiteSchema returns the SQLite DDL.
func SQLiteSchema() string {
	return sqliteSchema
}

// PostgresSchema returns the Postgres DDL.
func PostgresSchema() string {
	return postgresSchema
}

// SplitStatements splits a semicolon-terminated DDL script into executable statements.
// It drops blank lines and single-line comments that start with "--".
func SplitStatements(ddl string) []string {
	scanner := bufio.NewScanner(strings.NewReader(ddl))
	var stmts []string
	var current strings.Builder

	flush := func() {
		stmt := strings.TrimSpace(current.String())
		if stmt != "" {
			stmts = append(stmts, stmt)
		}
		current.Reset()
	}

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteByte('\n')
		if strings.HasSuffix(trimmed, ";") {
			flush()
		}
	}

	if tail := strings.TrimSpace(current.String()); tail != "" {
		stmts = append(stmts, tail)
	}

	return stmts
}
