// File path: internal/api/schema_handler.go
package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/luhcrodrigues/sqlpilot/internal/catalog"
	"github.com/luhcrodrigues/sqlpilot/internal/drift"
)

type schemaResponse struct {
	Database    string              `json:"database"`
	Fingerprint string              `json:"fingerprint"`
	Tables      []string            `json:"tables"`
	Columns     map[string][]string `json:"columns"`
	ChangeCount int                 `json:"change_count"`
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	snap := s.monitor.Snapshot()
	columns := make(map[string][]string, len(snap))
	for _, table := range snap.TableNames() {
		columns[table] = snap.Columns(table)
	}
	writeJSON(w, http.StatusOK, schemaResponse{
		Database:    s.monitor.Database(),
		Fingerprint: s.monitor.Fingerprint(),
		Tables:      snap.TableNames(),
		Columns:     columns,
		ChangeCount: s.monitor.ChangeCount(),
	})
}

func (s *Server) handleSchemaChanges(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}
	records := s.monitor.RecentChanges(limit)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":   s.monitor.ChangeCount(),
		"changes": records,
	})
}

// handleSchemaRefresh forces a drift cycle outside the per-request path,
// for operators applying migrations.
func (s *Server) handleSchemaRefresh(w http.ResponseWriter, r *http.Request) {
	result, err := s.monitor.Check(r.Context())
	switch {
	case err != nil && errors.Is(err, drift.ErrRebuildFailed):
		writeJSON(w, http.StatusAccepted, map[string]interface{}{
			"result": result,
			"error":  err.Error(),
		})
	case err != nil && errors.Is(err, catalog.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, map[string]interface{}{"result": result})
	}
}
