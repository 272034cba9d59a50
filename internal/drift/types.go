// File path: internal/drift/types.go
package drift

import "time"

// Kind classifies the outcome of a drift check.
type Kind string

const (
	// KindNoChange means identity and fingerprint both match the baseline.
	KindNoChange Kind = "no_change"
	// KindBaseline is the first successful observation; there is nothing to
	// diff against, so it produces no ledger record.
	KindBaseline Kind = "baseline"
	// KindDatabaseSwitch means the connected database identity changed. It
	// outranks fingerprint comparison: a switch is reported even when the
	// new database happens to carry an identical schema.
	KindDatabaseSwitch Kind = "database_switch"
	// KindSchemaChange means the identity is unchanged but the schema
	// fingerprint differs from the baseline.
	KindSchemaChange Kind = "schema_change"
)

// Changed reports whether the kind requires cache invalidation.
func (k Kind) Changed() bool {
	return k == KindDatabaseSwitch || k == KindSchemaChange
}

// Result describes a single completed drift check.
type Result struct {
	Kind                Kind     `json:"kind"`
	Database            string   `json:"database"`
	PreviousDatabase    string   `json:"previous_database,omitempty"`
	Fingerprint         string   `json:"fingerprint"`
	PreviousFingerprint string   `json:"previous_fingerprint,omitempty"`
	AddedTables         []string `json:"added_tables,omitempty"`
	RemovedTables       []string `json:"removed_tables,omitempty"`
}

// Record is one immutable entry of the change ledger.
type Record struct {
	ID               string    `json:"id" db:"record_id"`
	Timestamp        time.Time `json:"timestamp" db:"created_at"`
	Kind             Kind      `json:"kind" db:"kind"`
	Database         string    `json:"database" db:"database"`
	PreviousDatabase string    `json:"previous_database,omitempty" db:"previous_database"`
	AddedTables      []string  `json:"added_tables,omitempty" db:"-"`
	RemovedTables    []string  `json:"removed_tables,omitempty" db:"-"`
}
