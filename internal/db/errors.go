package db

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	mattn "github.com/mattn/go-sqlite3"
	modernc "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// IsUniqueViolation reports whether err is a unique or primary key
// constraint failure from any of the supported drivers.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var se mattn.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == mattn.ErrConstraintUnique ||
			se.ExtendedCode == mattn.ErrConstraintPrimaryKey
	}

	var me *modernc.Error
	if errors.As(err, &me) {
		return me.Code() == sqlitelib.SQLITE_CONSTRAINT_UNIQUE ||
			me.Code() == sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}

	return false
}
