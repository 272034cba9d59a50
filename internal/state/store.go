// File path: internal/state/store.go
package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/luhcrodrigues/sqlpilot/internal/catalog"
	"github.com/luhcrodrigues/sqlpilot/internal/drift"
)

// Store persists the drift baseline and change ledger in a local SQLite
// file so a restart resumes from the last committed observation instead of
// reporting a fresh baseline.
type Store struct {
	db *sqlx.DB
}

// Open constructs a Store backed by the SQLite database at the provided
// path, migrating the schema on first use.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("state path required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve state path: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", abs)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping state store: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute schema statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}

var schemaStatements = []string{
	`PRAGMA journal_mode = WAL;`,
	`CREATE TABLE IF NOT EXISTS baseline (
                id INTEGER PRIMARY KEY CHECK (id = 1),
                database_name TEXT NOT NULL,
                fingerprint TEXT NOT NULL,
                snapshot TEXT NOT NULL,
                updated_at TIMESTAMP NOT NULL
        );`,
	`CREATE TABLE IF NOT EXISTS changes (
                record_id TEXT PRIMARY KEY,
                created_at TIMESTAMP NOT NULL,
                kind TEXT NOT NULL,
                database_name TEXT NOT NULL,
                previous_database TEXT NOT NULL DEFAULT '',
                added_tables TEXT NOT NULL DEFAULT '[]',
                removed_tables TEXT NOT NULL DEFAULT '[]'
        );`,
	`CREATE INDEX IF NOT EXISTS idx_changes_created_at ON changes(created_at);`,
}

// LoadBaseline returns the persisted observation, if any.
func (s *Store) LoadBaseline(ctx context.Context) (string, string, catalog.Snapshot, bool, error) {
	var row struct {
		Database    string `db:"database_name"`
		Fingerprint string `db:"fingerprint"`
		Snapshot    string `db:"snapshot"`
	}
	err := s.db.GetContext(ctx, &row, `SELECT database_name, fingerprint, snapshot FROM baseline WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", nil, false, nil
	}
	if err != nil {
		return "", "", nil, false, fmt.Errorf("load baseline: %w", err)
	}
	var snap catalog.Snapshot
	if err := json.Unmarshal([]byte(row.Snapshot), &snap); err != nil {
		return "", "", nil, false, fmt.Errorf("decode baseline snapshot: %w", err)
	}
	return row.Database, row.Fingerprint, snap, true, nil
}

// SaveBaseline upserts the single persisted observation row.
func (s *Store) SaveBaseline(ctx context.Context, database, fingerprint string, snap catalog.Snapshot) error {
	encoded, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode baseline snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
                INSERT INTO baseline (id, database_name, fingerprint, snapshot, updated_at)
                VALUES (1, ?, ?, ?, ?)
                ON CONFLICT(id) DO UPDATE SET
                        database_name = excluded.database_name,
                        fingerprint = excluded.fingerprint,
                        snapshot = excluded.snapshot,
                        updated_at = excluded.updated_at`,
		database, fingerprint, string(encoded), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save baseline: %w", err)
	}
	return nil
}

// AppendRecord inserts one ledger record. Records are never updated or
// deleted.
func (s *Store) AppendRecord(ctx context.Context, record drift.Record) error {
	added, err := json.Marshal(record.AddedTables)
	if err != nil {
		return fmt.Errorf("encode added tables: %w", err)
	}
	removed, err := json.Marshal(record.RemovedTables)
	if err != nil {
		return fmt.Errorf("encode removed tables: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
                INSERT INTO changes (record_id, created_at, kind, database_name, previous_database, added_tables, removed_tables)
                VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.Timestamp.UTC(), string(record.Kind), record.Database,
		record.PreviousDatabase, string(added), string(removed))
	if err != nil {
		return fmt.Errorf("append change record: %w", err)
	}
	return nil
}

// LoadRecords returns all persisted ledger records in chronological order.
func (s *Store) LoadRecords(ctx context.Context) ([]drift.Record, error) {
	type row struct {
		RecordID         string    `db:"record_id"`
		CreatedAt        time.Time `db:"created_at"`
		Kind             string    `db:"kind"`
		Database         string    `db:"database_name"`
		PreviousDatabase string    `db:"previous_database"`
		AddedTables      string    `db:"added_tables"`
		RemovedTables    string    `db:"removed_tables"`
	}
	var rows []row
	err := s.db.SelectContext(ctx, &rows, `
                SELECT record_id, created_at, kind, database_name, previous_database, added_tables, removed_tables
                FROM changes ORDER BY created_at ASC, record_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("load change records: %w", err)
	}
	records := make([]drift.Record, 0, len(rows))
	for _, r := range rows {
		record := drift.Record{
			ID:               r.RecordID,
			Timestamp:        r.CreatedAt,
			Kind:             drift.Kind(r.Kind),
			Database:         r.Database,
			PreviousDatabase: r.PreviousDatabase,
		}
		if err := json.Unmarshal([]byte(r.AddedTables), &record.AddedTables); err != nil {
			return nil, fmt.Errorf("decode added tables for %s: %w", r.RecordID, err)
		}
		if err := json.Unmarshal([]byte(r.RemovedTables), &record.RemovedTables); err != nil {
			return nil, fmt.Errorf("decode removed tables for %s: %w", r.RecordID, err)
		}
		records = append(records, record)
	}
	return records, nil
}

var _ drift.History = (*Store)(nil)
