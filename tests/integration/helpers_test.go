// Package integration provides shared test helpers for driver
// integration tests.
package integration

import (
	"path/filepath"
	"testing"

	"github.com/mesh-intelligence/pantrydb/internal/enginetest"
	"github.com/mesh-intelligence/pantrydb/pkg/pantrydb"
)

// openPantry connects to a file-backed database in an isolated temp
// directory. Each test gets its own database for isolation.
func openPantry(t *testing.T, opts ...pantrydb.Option) (*pantrydb.Connection, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pantry.db")
	conn := reopenPantry(t, path, opts...)
	return conn, path
}

// reopenPantry connects to an existing database file, for persistence
// tests that cycle the connection.
func reopenPantry(t *testing.T, path string, opts ...pantrydb.Option) *pantrydb.Connection {
	t.Helper()
	eng := enginetest.New()
	conn, err := pantrydb.Connect(path, append([]pantrydb.Option{pantrydb.WithEngine(eng)}, opts...)...)
	if err != nil {
		t.Fatalf("Connect(%q): %v", path, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// mustRun executes a statement on a fresh cursor and closes it.
func mustRun(t *testing.T, conn *pantrydb.Connection, sql string, args ...any) {
	t.Helper()
	cur, err := conn.Cursor()
	if err != nil {
		t.Fatalf("Cursor: %v", err)
	}
	defer cur.Close()
	if err := cur.Execute(sql, args...); err != nil {
		t.Fatalf("Execute(%q): %v", sql, err)
	}
}

// queryAll runs a select and returns every row.
func queryAll(t *testing.T, conn *pantrydb.Connection, sql string, args ...any) [][]any {
	t.Helper()
	cur, err := conn.Execute(sql, args...)
	if err != nil {
		t.Fatalf("Execute(%q): %v", sql, err)
	}
	defer cur.Close()
	rows, err := cur.FetchAll()
	if err != nil {
		t.Fatalf("FetchAll(%q): %v", sql, err)
	}
	return rows
}
