// Package sqlstore is the SQL round-trip layer under the archive entities.
//
// Every statement is built from catalog-declared identifiers (always quoted)
// and bound arguments, then rebound for the active dialect. The store does no
// caching: each call is one round trip.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/example/aspen/internal/db"
	"github.com/example/aspen/internal/ports/secondary"
)

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store executes archive statements against a database or an open transaction.
type Store struct {
	db      *sql.DB
	q       Querier
	inTx    bool
	dialect db.Dialect
	metrics secondary.MetricsRecorder
}

// New creates a store over database.
func New(database *sql.DB, dialect db.Dialect, metrics secondary.MetricsRecorder) *Store {
	if metrics == nil {
		metrics = secondary.NoopMetrics{}
	}
	return &Store{db: database, q: database, dialect: dialect, metrics: metrics}
}

// Dialect returns the SQL dialect of the store.
func (s *Store) Dialect() db.Dialect { return s.dialect }

// Transact runs fn against a store bound to a single transaction, committing
// when fn returns nil and rolling back otherwise. Nested calls reuse the
// outer transaction.
func (s *Store) Transact(ctx context.Context, fn func(*Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txStore := &Store{db: s.db, q: tx, inTx: true, dialect: s.dialect, metrics: s.metrics}
	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("failed to roll back: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) quote(ident string) string { return s.dialect.Quote(ident) }

// Exec runs a statement written with "?" placeholders.
func (s *Store) Exec(ctx context.Context, table, op, query string, args ...any) (sql.Result, error) {
	s.metrics.ObserveQuery(table, op)
	return s.q.ExecContext(ctx, s.dialect.Rebind(query), args...)
}

// Query runs a query written with "?" placeholders.
func (s *Store) Query(ctx context.Context, table, query string, args ...any) (*sql.Rows, error) {
	s.metrics.ObserveQuery(table, "select")
	return s.q.QueryContext(ctx, s.dialect.Rebind(query), args...)
}

// QueryRow runs a single-row query written with "?" placeholders.
func (s *Store) QueryRow(ctx context.Context, table, query string, args ...any) *sql.Row {
	s.metrics.ObserveQuery(table, "select")
	return s.q.QueryRowContext(ctx, s.dialect.Rebind(query), args...)
}

// Value reads one column of the row whose keyColumn equals id. found is false
// when no such row exists.
func (s *Store) Value(ctx context.Context, table, keyColumn string, id int64, column string) (raw any, found bool, err error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", s.quote(column), s.quote(table), s.quote(keyColumn))
	err = s.QueryRow(ctx, table, query, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s.%s: %w", table, column, err)
	}
	return raw, true, nil
}

// SetValue updates one column of the row whose keyColumn equals id and
// returns the number of rows changed.
func (s *Store) SetValue(ctx context.Context, table, keyColumn string, id int64, column string, value any) (int64, error) {
	query := fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s = ?", s.quote(table), s.quote(column), s.quote(keyColumn))
	result, err := s.Exec(ctx, table, "update", query, value, id)
	if err != nil {
		return 0, fmt.Errorf("failed to update %s.%s: %w", table, column, err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// Exists reports whether a row with keyColumn = id exists.
func (s *Store) Exists(ctx context.Context, table, keyColumn string, id int64) (bool, error) {
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE %s = ?", s.quote(table), s.quote(keyColumn))
	var one int
	err := s.QueryRow(ctx, table, query, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up %s: %w", table, err)
	}
	return true, nil
}

// EnsureRow creates the dependent row keyed by id unless it already exists.
func (s *Store) EnsureRow(ctx context.Context, table, keyColumn string, id int64) error {
	ok, err := s.Exists(ctx, table, keyColumn, id)
	if err != nil || ok {
		return err
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?)", s.quote(table), s.quote(keyColumn))
	if _, err := s.Exec(ctx, table, "insert", query, id); err != nil {
		return fmt.Errorf("failed to create %s row: %w", table, err)
	}
	return nil
}

// Insert adds a row with an autoincrement id and returns that id.
func (s *Store) Insert(ctx context.Context, table string, columns []string, values []any) (int64, error) {
	var query string
	if len(columns) == 0 {
		query = fmt.Sprintf(`INSERT INTO %s DEFAULT VALUES RETURNING "id"`, s.quote(table))
	} else {
		query = fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING "id"`,
			s.quote(table), s.columnList(columns), placeholders(len(columns)))
	}

	s.metrics.ObserveQuery(table, "insert")
	var id int64
	if err := s.q.QueryRowContext(ctx, s.dialect.Rebind(query), values...).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return id, nil
}

// InsertRow adds a row without reading back an id (join rows, tabular rows).
// The driver error stays wrapped so db.IsUniqueViolation still sees it.
func (s *Store) InsertRow(ctx context.Context, table string, columns []string, values []any) error {
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.quote(table), s.columnList(columns), placeholders(len(columns)))
	if _, err := s.Exec(ctx, table, "insert", query, values...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

// Delete removes rows matching every column = value pair and returns how many
// were removed.
func (s *Store) Delete(ctx context.Context, table string, where map[string]any) (int64, error) {
	clause, args := s.where(where)
	query := fmt.Sprintf("DELETE FROM %s%s", s.quote(table), clause)
	result, err := s.Exec(ctx, table, "delete", query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// Count returns the number of rows matching every column = value pair.
func (s *Store) Count(ctx context.Context, table string, where map[string]any) (int, error) {
	clause, args := s.where(where)
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", s.quote(table), clause)
	var n int
	if err := s.QueryRow(ctx, table, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

// IDs runs a query whose single column is an integer id.
func (s *Store) IDs(ctx context.Context, table, query string, args ...any) ([]int64, error) {
	rows, err := s.Query(ctx, table, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan %s id: %w", table, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	return ids, nil
}

// Strings runs a query whose single column is text; NULLs are skipped.
func (s *Store) Strings(ctx context.Context, table, query string, args ...any) ([]string, error) {
	rows, err := s.Query(ctx, table, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		if v.Valid {
			out = append(out, v.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	return out, nil
}

// Rows reads the given columns of every row matching keyColumn = id, ordered
// by the surrogate id so rows come back in insertion order.
func (s *Store) Rows(ctx context.Context, table, keyColumn string, id int64, columns []string) ([][]any, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ? ORDER BY "id"`,
		s.columnList(columns), s.quote(table), s.quote(keyColumn))
	rows, err := s.Query(ctx, table, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		raw := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		out = append(out, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}
	return out, nil
}

func (s *Store) columnList(columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = s.quote(c)
	}
	return strings.Join(quoted, ", ")
}

// where renders a deterministic WHERE clause; keys are sorted so the same
// filter always yields the same statement text.
func (s *Store) where(filter map[string]any) (string, []any) {
	if len(filter) == 0 {
		return "", nil
	}
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		parts[i] = s.quote(k) + " = ?"
		args[i] = filter[k]
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
