// File path: internal/catalog/inspector_test.go
package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) (*sqlx.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.db")
	db, err := sqlx.Open("sqlite", "file:"+path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, path
}

func TestInspectEnumeratesTablesAndColumns(t *testing.T) {
	db, path := openTestDB(t)
	stmts := []string{
		`CREATE TABLE customers (id INTEGER PRIMARY KEY, name TEXT)`,
		`CREATE TABLE orders (id INTEGER PRIMARY KEY, customer_id INTEGER)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
	inspector := NewDBInspector(db, "sqlite", 5*time.Second)
	snap, identity, err := inspector.Inspect(context.Background())
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if identity != filepath.Base(path) {
		t.Fatalf("unexpected identity: %q", identity)
	}
	if !reflect.DeepEqual(snap.TableNames(), []string{"customers", "orders"}) {
		t.Fatalf("unexpected tables: %v", snap.TableNames())
	}
	if !reflect.DeepEqual(snap.Columns("orders"), []string{"id", "customer_id"}) {
		t.Fatalf("unexpected columns: %v", snap.Columns("orders"))
	}
}

func TestInspectEmptySchemaIsValid(t *testing.T) {
	db, _ := openTestDB(t)
	inspector := NewDBInspector(db, "sqlite", 5*time.Second)
	snap, _, err := inspector.Inspect(context.Background())
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if len(snap) != 0 {
		t.Fatalf("expected empty snapshot, got %v", snap.TableNames())
	}
}

func TestInspectClosedPoolReportsUnavailable(t *testing.T) {
	db, _ := openTestDB(t)
	db.Close()
	inspector := NewDBInspector(db, "sqlite", time.Second)
	_, _, err := inspector.Inspect(context.Background())
	if err == nil {
		t.Fatalf("expected error from closed pool")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
