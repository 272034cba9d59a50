// File path: internal/catalog/inspector.go
package catalog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/luhcrodrigues/sqlpilot/internal/common"
)

// Inspector reads the live database's table/column catalog and the identity
// of the connected database. Implementations perform read-only queries only.
type Inspector interface {
	Inspect(ctx context.Context) (Snapshot, string, error)
}

// DBInspector inspects the catalog of a pooled sqlx connection. The driver
// decides which system tables are queried.
type DBInspector struct {
	db      *sqlx.DB
	driver  string
	timeout time.Duration
}

// Open connects to the database described by cfg and returns both the
// inspector and the shared connection pool for query execution.
func Open(cfg Config) (*DBInspector, *sqlx.DB, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, errors.New("database dsn required")
	}
	driver, err := normalizeDriver(cfg.Driver)
	if err != nil {
		return nil, nil, err
	}
	db, err := sqlx.Open(driver, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	common.Logger().Info("catalog: database connected", "driver", driver)
	return NewDBInspector(db, driver, cfg.Timeout), db, nil
}

// NewDBInspector wraps an existing connection pool.
func NewDBInspector(db *sqlx.DB, driver string, timeout time.Duration) *DBInspector {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DBInspector{db: db, driver: driver, timeout: timeout}
}

func normalizeDriver(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "sqlite3":
		return "sqlite", nil
	case "pgx", "postgres", "postgresql":
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", name)
	}
}

// Inspect enumerates every user table and its column names, plus the current
// database identity. Failures are reported as ErrUnavailable; an empty
// result with a nil error is a legitimately empty schema.
func (i *DBInspector) Inspect(ctx context.Context) (Snapshot, string, error) {
	if i == nil || i.db == nil {
		return nil, "", fmt.Errorf("%w: inspector not configured", ErrUnavailable)
	}
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	var (
		tables   []Table
		identity string
		err      error
	)
	switch i.driver {
	case "pgx":
		tables, identity, err = i.inspectPostgres(ctx)
	default:
		tables, identity, err = i.inspectSQLite(ctx)
	}
	if err != nil {
		return nil, "", err
	}
	snap, err := NewSnapshot(tables)
	if err != nil {
		return nil, "", err
	}
	return snap, identity, nil
}

func (i *DBInspector) inspectPostgres(ctx context.Context) ([]Table, string, error) {
	var identity string
	if err := i.db.GetContext(ctx, &identity, `SELECT current_database()`); err != nil {
		return nil, "", unavailable("resolve database name", err)
	}
	rows, err := i.db.QueryxContext(ctx, `
                SELECT table_name, column_name
                FROM information_schema.columns
                WHERE table_schema = 'public'
                ORDER BY table_name, ordinal_position`)
	if err != nil {
		return nil, "", unavailable("read information_schema", err)
	}
	defer rows.Close()

	var tables []Table
	index := make(map[string]int)
	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return nil, "", unavailable("scan catalog row", err)
		}
		pos, ok := index[table]
		if !ok {
			pos = len(tables)
			index[table] = pos
			tables = append(tables, Table{Name: table})
		}
		tables[pos].Columns = append(tables[pos].Columns, column)
	}
	if err := rows.Err(); err != nil {
		return nil, "", unavailable("iterate catalog rows", err)
	}
	return tables, identity, nil
}

func (i *DBInspector) inspectSQLite(ctx context.Context) ([]Table, string, error) {
	identity := "main"
	var file string
	if err := i.db.GetContext(ctx, &file, `SELECT file FROM pragma_database_list WHERE name = 'main'`); err == nil {
		if trimmed := strings.TrimSpace(file); trimmed != "" {
			identity = filepath.Base(trimmed)
		}
	}
	var names []string
	err := i.db.SelectContext(ctx, &names, `
                SELECT name FROM sqlite_master
                WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
                ORDER BY name`)
	if err != nil {
		return nil, "", unavailable("read sqlite_master", err)
	}
	tables := make([]Table, 0, len(names))
	for _, name := range names {
		var columns []string
		if err := i.db.SelectContext(ctx, &columns, `SELECT name FROM pragma_table_info(?) ORDER BY cid`, name); err != nil {
			return nil, "", unavailable("read table info", err)
		}
		tables = append(tables, Table{Name: name, Columns: columns})
	}
	return tables, identity, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
