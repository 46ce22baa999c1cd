package db

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect captures the few SQL differences between the supported backends.
type Dialect int

const (
	// SQLite covers both the cgo (sqlite3) and pure Go (sqlite) drivers.
	SQLite Dialect = iota
	// Postgres is served through the pgx stdlib driver.
	Postgres
)

// Driver names accepted by Open.
const (
	DriverSQLite3 = "sqlite3"
	DriverSQLite  = "sqlite"
	DriverPgx     = "pgx"
)

// DialectFor maps a database/sql driver name to its dialect.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case DriverSQLite3, DriverSQLite:
		return SQLite, nil
	case DriverPgx:
		return Postgres, nil
	}
	return 0, fmt.Errorf("unsupported database driver %q", driver)
}

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

// Schema returns the DDL for the dialect.
func (d Dialect) Schema() string {
	if d == Postgres {
		return PostgresSchema()
	}
	return SQLiteSchema()
}

// Quote double-quotes an identifier. Catalog column names are mixed case and
// include reserved words ("group", "type"), so every generated statement
// quotes them.
func (d Dialect) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// Rebind rewrites "?" placeholders into the dialect's form. Question marks
// inside single-quoted literals are left alone.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inLiteral := false
	for _, r := range query {
		switch {
		case r == '\'':
			inLiteral = !inLiteral
			b.WriteRune(r)
		case r == '?' && !inLiteral:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
