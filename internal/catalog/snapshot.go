// File path: internal/catalog/snapshot.go
package catalog

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnavailable marks catalog reads that failed for transport, auth or
	// timeout reasons. A cycle that sees this error has no observation; it
	// must never be confused with a legitimately empty schema.
	ErrUnavailable = errors.New("catalog unavailable")

	// ErrMalformed marks catalog responses that are internally inconsistent,
	// such as a duplicated table name. Treated like ErrUnavailable by
	// callers: fail safe, do not guess.
	ErrMalformed = errors.New("catalog malformed")
)

// Snapshot is a point-in-time view of the database schema: table name to the
// table's column names in catalog order. Table and column ordering carry no
// meaning; equality and fingerprinting are order-independent.
type Snapshot map[string][]string

// NewSnapshot validates the raw table rows and assembles a Snapshot. A
// duplicate table name yields ErrMalformed.
func NewSnapshot(tables []Table) (Snapshot, error) {
	snap := make(Snapshot, len(tables))
	for _, table := range tables {
		if _, exists := snap[table.Name]; exists {
			return nil, fmt.Errorf("%w: duplicate table %q", ErrMalformed, table.Name)
		}
		cols := make([]string, len(table.Columns))
		copy(cols, table.Columns)
		snap[table.Name] = cols
	}
	return snap, nil
}

// Table is one catalog entry as retrieved from the database.
type Table struct {
	Name    string
	Columns []string
}

// TableNames returns the sorted table names of the snapshot.
func (s Snapshot) TableNames() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Columns returns a copy of the column list for the named table.
func (s Snapshot) Columns(table string) []string {
	cols, ok := s[table]
	if !ok {
		return nil
	}
	out := make([]string, len(cols))
	copy(out, cols)
	return out
}

// Clone returns a deep copy so a committed snapshot can never be mutated
// through an alias held by the caller.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	for name, cols := range s {
		copied := make([]string, len(cols))
		copy(copied, cols)
		out[name] = copied
	}
	return out
}

// Diff returns the table names present in s but not in prev (added) and in
// prev but not in s (removed), both sorted. Column-level changes inside a
// surviving table are not enumerated here.
func (s Snapshot) Diff(prev Snapshot) (added, removed []string) {
	for name := range s {
		if _, ok := prev[name]; !ok {
			added = append(added, name)
		}
	}
	for name := range prev {
		if _, ok := s[name]; !ok {
			removed = append(removed, name)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}
