// Package dbtest opens throwaway SQLite databases for package tests.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/siad-agro/siad-api/internal/db"
)

// Open returns a migrated SQLite database living in t.TempDir.
func Open(t testing.TB) *sql.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "siad.db") + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = dbh.Close() })
	return dbh
}

// MustExec runs a seed statement and fails the test on error.
func MustExec(t testing.TB, dbh *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := dbh.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

// InsertID runs an INSERT ... RETURNING id and returns the id.
func InsertID(t testing.TB, dbh *sql.DB, query string, args ...any) int64 {
	t.Helper()
	var id int64
	if err := dbh.QueryRow(query, args...).Scan(&id); err != nil {
		t.Fatalf("insert %q: %v", query, err)
	}
	return id
}
