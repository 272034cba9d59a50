// File path: internal/sqlgen/executor.go
package sqlgen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/luhcrodrigues/sqlpilot/internal/common/telemetry"
)

// DefaultRowLimit caps result sets returned to the chat surface.
const DefaultRowLimit = 500

// ErrNotReadOnly is returned for statements that are not plain SELECT or
// WITH queries.
var ErrNotReadOnly = fmt.Errorf("only read-only SELECT statements are executed")

// ResultSet is a bounded, column-ordered query result.
type ResultSet struct {
	Columns   []string                 `json:"columns"`
	Rows      []map[string]interface{} `json:"rows"`
	Truncated bool                     `json:"truncated"`
}

// Executor runs generated statements against the application database with
// a read-only guard and a hard row cap.
type Executor struct {
	db       *sqlx.DB
	rowLimit int
	timeout  time.Duration
}

func NewExecutor(db *sqlx.DB, rowLimit int, timeout time.Duration) *Executor {
	if rowLimit <= 0 {
		rowLimit = DefaultRowLimit
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Executor{db: db, rowLimit: rowLimit, timeout: timeout}
}

func (e *Executor) Execute(ctx context.Context, query string) (*ResultSet, error) {
	if !IsReadOnly(query) {
		return nil, ErrNotReadOnly
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	rows, err := e.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	result := &ResultSet{Columns: columns, Rows: []map[string]interface{}{}}
	for rows.Next() {
		if len(result.Rows) >= e.rowLimit {
			result.Truncated = true
			break
		}
		row := map[string]interface{}{}
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for key, value := range row {
			if raw, ok := value.([]byte); ok {
				row[key] = string(raw)
			}
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	telemetry.RecordQuery(len(result.Rows))
	return result, nil
}

// IsReadOnly accepts SELECT statements and WITH-prefixed queries and rejects
// everything else, including multi-statement input.
func IsReadOnly(query string) bool {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return false
	}
	if strings.Contains(strings.TrimSuffix(trimmed, ";"), ";") {
		return false
	}
	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return false
	}
	for _, keyword := range []string{"INSERT ", "UPDATE ", "DELETE ", "DROP ", "ALTER ", "CREATE ", "TRUNCATE ", "ATTACH ", "PRAGMA "} {
		if strings.Contains(upper, keyword) {
			return false
		}
	}
	return true
}
