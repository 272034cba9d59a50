// File path: internal/drift/fingerprint.go
package drift

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/luhcrodrigues/sqlpilot/internal/catalog"
)

// Fingerprint derives a stable hash for a schema snapshot. Table names and
// column names are sorted before hashing so the digest is invariant under
// the retrieval order of the catalog. Any added, removed or renamed table or
// column changes the digest.
func Fingerprint(snap catalog.Snapshot) string {
	hasher := sha256.New()
	write := func(part string) {
		_, _ = hasher.Write([]byte(part))
		_, _ = hasher.Write([]byte{0})
	}

	tables := make([]string, 0, len(snap))
	for name := range snap {
		tables = append(tables, name)
	}
	sort.Strings(tables)

	for _, table := range tables {
		write(table)
		columns := append([]string(nil), snap[table]...)
		sort.Strings(columns)
		for _, column := range columns {
			write(column)
		}
		// Second separator closes the column list so table boundaries stay
		// unambiguous.
		write("")
	}

	sum := hasher.Sum(nil)
	return hex.EncodeToString(sum)
}
