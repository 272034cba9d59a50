// File path: internal/drift/ledger.go
package drift

import "sync"

// Ledger is the append-only history of detected drift events. Entries are
// never removed or deduplicated; identical events at different times are
// both retained.
type Ledger struct {
	mu      sync.RWMutex
	records []Record
}

func NewLedger() *Ledger {
	return &Ledger{}
}

// Append adds a record to the end of the ledger.
func (l *Ledger) Append(record Record) {
	l.mu.Lock()
	l.records = append(l.records, record)
	l.mu.Unlock()
}

// Recent returns the last n records, most recent first. n <= 0 returns the
// full history.
func (l *Ledger) Recent(n int) []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	total := len(l.records)
	if total == 0 {
		return nil
	}
	if n <= 0 || n > total {
		n = total
	}
	out := make([]Record, 0, n)
	for i := total - 1; i >= total-n; i-- {
		out = append(out, l.records[i])
	}
	return out
}

// Len reports the number of recorded drift events.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}
