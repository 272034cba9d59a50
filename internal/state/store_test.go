// File path: internal/state/store_test.go
package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/luhcrodrigues/sqlpilot/internal/catalog"
	"github.com/luhcrodrigues/sqlpilot/internal/drift"
)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLoadBaselineEmptyStore(t *testing.T) {
	store := openTestStore(t, filepath.Join(t.TempDir(), "state.db"))
	_, _, _, ok, err := store.LoadBaseline(context.Background())
	if err != nil {
		t.Fatalf("load baseline: %v", err)
	}
	if ok {
		t.Fatalf("fresh store must report no baseline")
	}
}

func TestBaselineRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store := openTestStore(t, path)
	ctx := context.Background()

	snap := catalog.Snapshot{"customers": {"id", "name"}, "orders": {"id"}}
	if err := store.SaveBaseline(ctx, "sales", "fp1", snap); err != nil {
		t.Fatalf("save baseline: %v", err)
	}
	if err := store.SaveBaseline(ctx, "sales", "fp2", snap); err != nil {
		t.Fatalf("overwrite baseline: %v", err)
	}

	database, fingerprint, loaded, ok, err := store.LoadBaseline(ctx)
	if err != nil {
		t.Fatalf("load baseline: %v", err)
	}
	if !ok || database != "sales" || fingerprint != "fp2" {
		t.Fatalf("unexpected baseline: ok=%v db=%s fp=%s", ok, database, fingerprint)
	}
	if len(loaded.Columns("customers")) != 2 {
		t.Fatalf("snapshot lost columns: %v", loaded)
	}
}

func TestRecordsPersistAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	store := openTestStore(t, path)
	first := drift.Record{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC().Add(-time.Minute),
		Kind:      drift.KindSchemaChange,
		Database:  "sales",
		AddedTables: []string{
			"products",
		},
	}
	second := drift.Record{
		ID:               uuid.NewString(),
		Timestamp:        time.Now().UTC(),
		Kind:             drift.KindDatabaseSwitch,
		Database:         "analytics",
		PreviousDatabase: "sales",
	}
	if err := store.AppendRecord(ctx, first); err != nil {
		t.Fatalf("append first: %v", err)
	}
	if err := store.AppendRecord(ctx, second); err != nil {
		t.Fatalf("append second: %v", err)
	}
	store.Close()

	reopened := openTestStore(t, path)
	records, err := reopened.LoadRecords(ctx)
	if err != nil {
		t.Fatalf("load records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != first.ID || records[1].ID != second.ID {
		t.Fatalf("records out of order: %v", records)
	}
	if len(records[0].AddedTables) != 1 || records[0].AddedTables[0] != "products" {
		t.Fatalf("added tables lost: %v", records[0].AddedTables)
	}
	if records[1].PreviousDatabase != "sales" {
		t.Fatalf("previous database lost: %v", records[1])
	}
}
