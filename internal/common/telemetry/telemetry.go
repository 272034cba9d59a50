// File path: internal/common/telemetry/telemetry.go
package telemetry

import (
	"expvar"
	"strings"
	"sync"
	"time"
)

var (
	initOnce sync.Once

	driftCheckTotal     *expvar.Map
	driftCheckLatencyMS *expvar.Int

	vectorSearchTotal     *expvar.Int
	vectorSearchLatencyMS *expvar.Int

	classifyTotal     *expvar.Int
	classifyCacheHits *expvar.Int

	queryTotal    *expvar.Int
	queryRowTotal *expvar.Int
)

func ensureInit() {
	initOnce.Do(func() {
		driftCheckTotal = expvar.NewMap("sqlpilot_drift_check_total")
		driftCheckLatencyMS = expvar.NewInt("sqlpilot_drift_check_latency_ms")

		vectorSearchTotal = expvar.NewInt("sqlpilot_vector_search_total")
		vectorSearchLatencyMS = expvar.NewInt("sqlpilot_vector_search_latency_ms")

		classifyTotal = expvar.NewInt("sqlpilot_classify_total")
		classifyCacheHits = expvar.NewInt("sqlpilot_classify_cache_hits")

		queryTotal = expvar.NewInt("sqlpilot_query_total")
		queryRowTotal = expvar.NewInt("sqlpilot_query_rows_total")
	})
}

// RecordDriftCheck counts a completed drift check by outcome kind.
func RecordDriftCheck(kind string, duration time.Duration) {
	ensureInit()
	key := strings.TrimSpace(strings.ToLower(kind))
	if key == "" {
		key = "unknown"
	}
	driftCheckTotal.Add(key, 1)
	if duration > 0 {
		driftCheckLatencyMS.Add(duration.Milliseconds())
	}
}

func RecordVectorSearch(duration time.Duration) {
	ensureInit()
	vectorSearchTotal.Add(1)
	if duration > 0 {
		vectorSearchLatencyMS.Add(duration.Milliseconds())
	}
}

// RecordClassification counts an intent classification; cacheHit marks memo
// lookups that avoided an LLM round trip.
func RecordClassification(cacheHit bool) {
	ensureInit()
	classifyTotal.Add(1)
	if cacheHit {
		classifyCacheHits.Add(1)
	}
}

func RecordQuery(rows int) {
	ensureInit()
	queryTotal.Add(1)
	if rows > 0 {
		queryRowTotal.Add(int64(rows))
	}
}
