// File path: internal/drift/orchestrator.go
package drift

import (
	"context"
	"errors"
	"fmt"

	"github.com/luhcrodrigues/sqlpilot/internal/catalog"
	"github.com/luhcrodrigues/sqlpilot/internal/common"
)

// ErrRebuildFailed marks an invalidation where the derived caches were
// purged but the semantic index rebuild signal failed. The purge is never
// rolled back; retrying the rebuild alone is the correct recovery.
var ErrRebuildFailed = errors.New("index rebuild failed")

// Purger is a cache whose entries become invalid when the schema epoch
// changes. Purge must be atomic with respect to concurrent lookups and must
// be a no-op on an already-empty cache.
type Purger interface {
	Purge()
}

// Rebuilder receives the new schema snapshot after drift and rebuilds the
// derived semantic index from it.
type Rebuilder interface {
	Rebuild(ctx context.Context, snap catalog.Snapshot, database string) error
}

// Orchestrator couples drift detection to the lifecycle of the derived
// caches. Purges run before the rebuild signal so no stale classification
// can be served against the new schema, even when the rebuild fails.
type Orchestrator struct {
	purgers   []Purger
	rebuilder Rebuilder
}

func NewOrchestrator(rebuilder Rebuilder, purgers ...Purger) *Orchestrator {
	return &Orchestrator{purgers: purgers, rebuilder: rebuilder}
}

// Invalidate clears every registered cache, then signals the index rebuild.
func (o *Orchestrator) Invalidate(ctx context.Context, snap catalog.Snapshot, database string) error {
	if o == nil {
		return nil
	}
	logger := common.Logger()
	for _, purger := range o.purgers {
		if purger == nil {
			continue
		}
		purger.Purge()
	}
	logger.Info("drift: derived caches purged", "caches", len(o.purgers))
	if o.rebuilder == nil {
		return nil
	}
	if err := o.rebuilder.Rebuild(ctx, snap, database); err != nil {
		logger.Error("drift: index rebuild signal failed", "database", database, "error", err)
		return fmt.Errorf("%w: %v", ErrRebuildFailed, err)
	}
	logger.Info("drift: index rebuild triggered", "database", database, "tables", len(snap))
	return nil
}
