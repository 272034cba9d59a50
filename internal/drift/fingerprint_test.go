// File path: internal/drift/fingerprint_test.go
package drift

import (
	"testing"

	"github.com/luhcrodrigues/sqlpilot/internal/catalog"
)

func TestFingerprintDeterministic(t *testing.T) {
	snap := catalog.Snapshot{
		"customers": {"id", "name"},
		"orders":    {"id", "customer_id"},
	}
	if Fingerprint(snap) != Fingerprint(snap) {
		t.Fatalf("fingerprint of identical snapshot differs between calls")
	}
}

func TestFingerprintOrderIndependent(t *testing.T) {
	a := catalog.Snapshot{
		"customers": {"id", "name"},
		"orders":    {"id", "customer_id"},
	}
	b := catalog.Snapshot{
		"orders":    {"customer_id", "id"},
		"customers": {"name", "id"},
	}
	if Fingerprint(a) != Fingerprint(b) {
		t.Fatalf("fingerprint depends on table or column retrieval order")
	}
}

func TestFingerprintSensitivity(t *testing.T) {
	base := catalog.Snapshot{
		"customers": {"id", "name"},
		"orders":    {"id", "customer_id"},
	}
	reference := Fingerprint(base)
	variants := map[string]catalog.Snapshot{
		"added table": {
			"customers": {"id", "name"},
			"orders":    {"id", "customer_id"},
			"products":  {"id", "price"},
		},
		"removed table": {
			"customers": {"id", "name"},
		},
		"renamed table": {
			"clients": {"id", "name"},
			"orders":  {"id", "customer_id"},
		},
		"added column": {
			"customers": {"id", "name", "email"},
			"orders":    {"id", "customer_id"},
		},
		"renamed column": {
			"customers": {"id", "full_name"},
			"orders":    {"id", "customer_id"},
		},
	}
	for name, snap := range variants {
		if Fingerprint(snap) == reference {
			t.Fatalf("%s: fingerprint collision with the base snapshot", name)
		}
	}
}

func TestFingerprintTableBoundary(t *testing.T) {
	// A column must never be confused with a table of the same name.
	a := catalog.Snapshot{"t1": {"x"}, "t2": nil}
	b := catalog.Snapshot{"t1": nil, "t2": {"x"}}
	if Fingerprint(a) == Fingerprint(b) {
		t.Fatalf("table boundaries are ambiguous in the serialization")
	}
}

func TestFingerprintEmptySnapshot(t *testing.T) {
	if Fingerprint(catalog.Snapshot{}) == "" {
		t.Fatalf("empty snapshot must still fingerprint")
	}
	if Fingerprint(catalog.Snapshot{}) == Fingerprint(catalog.Snapshot{"t": nil}) {
		t.Fatalf("empty snapshot collides with single empty table")
	}
}
