package db_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/example/aspen/internal/catalog"
	"github.com/example/aspen/internal/db"
)

func openTestDB(t *testing.T, driver string) *sql.DB {
	t.Helper()

	database, _, err := db.Open(context.Background(), driver, ":memory:")
	if err != nil {
		t.Fatalf("failed to open %s test db: %v", driver, err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}

func TestOpenAppliesSchema(t *testing.T) {
	for _, driver := range []string{db.DriverSQLite3, db.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			database := openTestDB(t, driver)

			var count int
			err := database.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'recordings_ieeg'").Scan(&count)
			if err != nil {
				t.Fatalf("query failed: %v", err)
			}
			if count != 1 {
				t.Errorf("recordings_ieeg table missing")
			}

			var version int
			if err := database.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version); err != nil {
				t.Fatalf("schema_version query failed: %v", err)
			}
			if version != 1 {
				t.Errorf("schema version = %d, want 1", version)
			}
		})
	}
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	database := openTestDB(t, db.DriverSQLite3)

	if err := db.RunMigrations(context.Background(), database, db.SQLite); err != nil {
		t.Fatalf("second RunMigrations failed: %v", err)
	}

	var count int
	if err := database.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected one recorded migration, got %d", count)
	}
}

func TestCatalogMatchesSchema(t *testing.T) {
	database := openTestDB(t, db.DriverSQLite3)
	c := catalog.Default()

	for _, name := range c.Tables() {
		cols, err := c.Columns(name)
		if err != nil {
			t.Fatalf("Columns(%s) failed: %v", name, err)
		}

		rows, err := database.Query(`SELECT "name" FROM pragma_table_info(?)`, name)
		if err != nil {
			t.Fatalf("table_info(%s) failed: %v", name, err)
		}
		present := map[string]bool{}
		for rows.Next() {
			var col string
			if err := rows.Scan(&col); err != nil {
				t.Fatalf("scan failed: %v", err)
			}
			present[col] = true
		}
		rows.Close()

		if len(present) == 0 {
			t.Errorf("catalog table %q missing from schema", name)
			continue
		}
		for _, col := range cols {
			if !present[col.Name] {
				t.Errorf("catalog column %s.%s missing from schema", name, col.Name)
			}
		}
	}
}

func TestIsUniqueViolation(t *testing.T) {
	for _, driver := range []string{db.DriverSQLite3, db.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			database := openTestDB(t, driver)

			if _, err := database.Exec(`INSERT INTO subjects ("id") VALUES (1)`); err != nil {
				t.Fatalf("insert subject failed: %v", err)
			}
			if _, err := database.Exec(`INSERT INTO subject_codes ("subject_id", "code") VALUES (1, 'alpha')`); err != nil {
				t.Fatalf("insert code failed: %v", err)
			}

			_, err := database.Exec(`INSERT INTO subject_codes ("subject_id", "code") VALUES (1, 'alpha')`)
			if err == nil {
				t.Fatal("expected unique violation")
			}
			if !db.IsUniqueViolation(err) {
				t.Errorf("IsUniqueViolation(%v) = false", err)
			}
		})
	}

	if db.IsUniqueViolation(nil) {
		t.Error("nil is not a violation")
	}
	if db.IsUniqueViolation(errors.New("boom")) {
		t.Error("plain error is not a violation")
	}
}

func TestRebind(t *testing.T) {
	tests := []struct {
		dialect db.Dialect
		in      string
		want    string
	}{
		{db.SQLite, "SELECT * FROM runs WHERE id = ? AND x = ?", "SELECT * FROM runs WHERE id = ? AND x = ?"},
		{db.Postgres, "SELECT * FROM runs WHERE id = ? AND x = ?", "SELECT * FROM runs WHERE id = $1 AND x = $2"},
		{db.Postgres, "SELECT '?' FROM runs WHERE id = ?", "SELECT '?' FROM runs WHERE id = $1"},
	}
	for _, tt := range tests {
		if got := tt.dialect.Rebind(tt.in); got != tt.want {
			t.Errorf("%s.Rebind(%q) = %q, want %q", tt.dialect, tt.in, got, tt.want)
		}
	}
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		driver string
		want   db.Dialect
	}{
		{"sqlite3", db.SQLite},
		{"sqlite", db.SQLite},
		{"pgx", db.Postgres},
	}
	for _, tt := range tests {
		got, err := db.DialectFor(tt.driver)
		if err != nil {
			t.Errorf("DialectFor(%q) failed: %v", tt.driver, err)
		}
		if got != tt.want {
			t.Errorf("DialectFor(%q) = %v, want %v", tt.driver, got, tt.want)
		}
	}
	if _, err := db.DialectFor("mysql"); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestSplitStatements(t *testing.T) {
	ddl := `-- header comment
CREATE TABLE a (
	id INTEGER
);

-- another
CREATE INDEX i ON a(id);
SELECT 1`
	stmts := db.SplitStatements(ddl)
	if len(stmts) != 3 {
		t.Fatalf("expected 3 statements, got %d: %q", len(stmts), stmts)
	}
	if !strings.HasPrefix(stmts[0], "CREATE TABLE a") {
		t.Errorf("unexpected first statement %q", stmts[0])
	}
	if stmts[2] != "SELECT 1" {
		t.Errorf("unterminated tail = %q", stmts[2])
	}

	for _, stmt := range db.SplitStatements(db.PostgresSchema()) {
		if strings.Contains(stmt, "AUTOINCREMENT") {
			t.Errorf("postgres DDL contains sqlite syntax: %q", stmt)
		}
	}
}

func TestSeedFixtures(t *testing.T) {
	database := openTestDB(t, db.DriverSQLite3)

	if err := db.SeedFixtures(context.Background(), database, db.SQLite); err != nil {
		t.Fatalf("SeedFixtures failed: %v", err)
	}

	var subjects, runs int
	database.QueryRow("SELECT COUNT(*) FROM subjects").Scan(&subjects)
	database.QueryRow("SELECT COUNT(*) FROM runs").Scan(&runs)
	if subjects != 2 {
		t.Errorf("subjects = %d, want 2", subjects)
	}
	if runs != 3 {
		t.Errorf("runs = %d, want 3", runs)
	}
}
