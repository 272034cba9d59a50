// File path: internal/drift/monitor.go
package drift

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/luhcrodrigues/sqlpilot/internal/catalog"
	"github.com/luhcrodrigues/sqlpilot/internal/common"
	"github.com/luhcrodrigues/sqlpilot/internal/common/telemetry"
)

// Invalidator is notified after a committed drift event so derived caches
// can be cleared and rebuilt. Implemented by Orchestrator.
type Invalidator interface {
	Invalidate(ctx context.Context, snap catalog.Snapshot, database string) error
}

// History persists the observation baseline and the change ledger across
// restarts. Optional; without it the monitor starts empty on every run.
type History interface {
	LoadBaseline(ctx context.Context) (database, fingerprint string, snap catalog.Snapshot, ok bool, err error)
	SaveBaseline(ctx context.Context, database, fingerprint string, snap catalog.Snapshot) error
	AppendRecord(ctx context.Context, record Record) error
	LoadRecords(ctx context.Context) ([]Record, error)
}

// Monitor owns the process-wide observation state: the last seen database
// identity, schema snapshot and fingerprint, plus the change ledger and the
// table sets of the most recent drift event. Every mutation happens under
// one mutex so a cycle either is a no-op or atomically replaces
// identity+snapshot+fingerprint together with the ledger append.
type Monitor struct {
	inspector   catalog.Inspector
	invalidator Invalidator
	history     History
	now         func() time.Time

	group singleflight.Group

	mu          sync.RWMutex
	observed    bool
	database    string
	snapshot    catalog.Snapshot
	fingerprint string
	ledger      *Ledger
	lastAdded   []string
	lastRemoved []string
}

type Option func(*Monitor)

func WithInvalidator(inv Invalidator) Option {
	return func(m *Monitor) { m.invalidator = inv }
}

func WithHistory(history History) Option {
	return func(m *Monitor) { m.history = history }
}

func NewMonitor(inspector catalog.Inspector, opts ...Option) *Monitor {
	m := &Monitor{
		inspector: inspector,
		now:       time.Now,
		ledger:    NewLedger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Restore seeds the baseline and ledger from the configured history so a
// restart does not report a spurious baseline observation. No-op without a
// history backend.
func (m *Monitor) Restore(ctx context.Context) error {
	if m.history == nil {
		return nil
	}
	database, fingerprint, snap, ok, err := m.history.LoadBaseline(ctx)
	if err != nil {
		return err
	}
	records, err := m.history.LoadRecords(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		m.observed = true
		m.database = database
		m.fingerprint = fingerprint
		m.snapshot = snap.Clone()
	}
	for _, record := range records {
		m.ledger.Append(record)
	}
	common.Logger().Info("drift: state restored", "baseline", ok, "records", len(records))
	return nil
}

// Check runs one drift cycle: snapshot the catalog, classify against the
// baseline, commit the new observation and trigger invalidation when the
// schema epoch changed. Concurrent calls are coalesced into the in-flight
// cycle and share its result. On a catalog failure the prior state is left
// untouched and the caller should keep using existing caches.
func (m *Monitor) Check(ctx context.Context) (Result, error) {
	v, err, _ := m.group.Do("check", func() (interface{}, error) {
		return m.check(ctx)
	})
	result, _ := v.(Result)
	return result, err
}

func (m *Monitor) check(ctx context.Context) (Result, error) {
	logger := common.Logger()
	start := m.now()
	snap, database, err := m.inspector.Inspect(ctx)
	if err != nil {
		telemetry.RecordDriftCheck("error", time.Since(start))
		logger.Warn("drift: catalog read failed, drift unknown this cycle", "error", err)
		return Result{}, err
	}
	fingerprint := Fingerprint(snap)

	result, record := m.commit(snap, database, fingerprint)
	telemetry.RecordDriftCheck(string(result.Kind), time.Since(start))

	if m.history != nil && result.Kind != KindNoChange {
		// Persistence is best effort: the committed in-memory state is
		// authoritative for this process lifetime.
		if err := m.history.SaveBaseline(ctx, database, fingerprint, snap); err != nil {
			logger.Warn("drift: baseline persistence failed", "error", err)
		}
		if record != nil {
			if err := m.history.AppendRecord(ctx, *record); err != nil {
				logger.Warn("drift: record persistence failed", "error", err)
			}
		}
	}

	if !result.Kind.Changed() {
		return result, nil
	}
	logger.Info(
		"drift: change detected",
		"kind", result.Kind,
		"database", result.Database,
		"previous_database", result.PreviousDatabase,
		"added", result.AddedTables,
		"removed", result.RemovedTables,
	)
	if m.invalidator != nil {
		if err := m.invalidator.Invalidate(ctx, snap, database); err != nil {
			// Caches are already purged; only the rebuild signal is
			// outstanding. Surface the failure without rolling back.
			return result, err
		}
	}
	return result, nil
}

// commit applies the detection rules in priority order and atomically
// replaces the observation state. Identity change outranks fingerprint
// comparison: a database switch is reported even when the new database
// coincidentally fingerprints identically.
func (m *Monitor) commit(snap catalog.Snapshot, database, fingerprint string) (Result, *Record) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := Result{Database: database, Fingerprint: fingerprint}

	switch {
	case !m.observed:
		result.Kind = KindBaseline
	case database != m.database:
		result.Kind = KindDatabaseSwitch
		result.PreviousDatabase = m.database
		result.PreviousFingerprint = m.fingerprint
	case fingerprint != m.fingerprint:
		result.Kind = KindSchemaChange
		result.PreviousFingerprint = m.fingerprint
		result.AddedTables, result.RemovedTables = snap.Diff(m.snapshot)
	default:
		result.Kind = KindNoChange
		return result, nil
	}

	m.observed = true
	m.database = database
	m.fingerprint = fingerprint
	m.snapshot = snap.Clone()

	if result.Kind == KindBaseline {
		return result, nil
	}

	record := Record{
		ID:               uuid.NewString(),
		Timestamp:        m.now().UTC(),
		Kind:             result.Kind,
		Database:         database,
		PreviousDatabase: result.PreviousDatabase,
		AddedTables:      append([]string(nil), result.AddedTables...),
		RemovedTables:    append([]string(nil), result.RemovedTables...),
	}
	m.ledger.Append(record)
	m.lastAdded = append([]string(nil), result.AddedTables...)
	m.lastRemoved = append([]string(nil), result.RemovedTables...)
	return result, &record
}

// Database returns the identity of the last observed database.
func (m *Monitor) Database() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.database
}

// Fingerprint returns the fingerprint of the last observed schema.
func (m *Monitor) Fingerprint() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fingerprint
}

// Tables returns the sorted table names of the last observed schema.
func (m *Monitor) Tables() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot.TableNames()
}

// Snapshot returns a copy of the last observed schema snapshot.
func (m *Monitor) Snapshot() catalog.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot.Clone()
}

// LastAddedTables returns the tables added by the most recent drift event.
func (m *Monitor) LastAddedTables() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.lastAdded...)
}

// LastRemovedTables returns the tables removed by the most recent drift event.
func (m *Monitor) LastRemovedTables() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.lastRemoved...)
}

// RecentChanges returns the last n ledger records, most recent first.
func (m *Monitor) RecentChanges(n int) []Record {
	return m.ledger.Recent(n)
}

// ChangeCount reports the total number of recorded drift events.
func (m *Monitor) ChangeCount() int {
	return m.ledger.Len()
}
