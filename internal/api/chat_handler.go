// File path: internal/api/chat_handler.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/luhcrodrigues/sqlpilot/internal/common"
	"github.com/luhcrodrigues/sqlpilot/internal/drift"
	"github.com/luhcrodrigues/sqlpilot/internal/intent"
	"github.com/luhcrodrigues/sqlpilot/internal/sqlgen"
)

const contextDocLimit = 7

type chatRequest struct {
	Question string `json:"question"`
}

type chatResponse struct {
	Category string            `json:"category"`
	Message  string            `json:"message,omitempty"`
	SQL      string            `json:"sql,omitempty"`
	Result   *sqlgen.ResultSet `json:"result,omitempty"`
	Drift    *chatDriftInfo    `json:"drift,omitempty"`
}

type chatDriftInfo struct {
	Kind          string   `json:"kind"`
	Database      string   `json:"database"`
	AddedTables   []string `json:"added_tables,omitempty"`
	RemovedTables []string `json:"removed_tables,omitempty"`
}

// handleChat answers one question. Every request starts with a drift check
// so answers never reference a stale schema; a catalog outage degrades to
// the last committed observation instead of failing the request.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(w, http.StatusBadRequest, errors.New("question required"))
		return
	}

	ctx := r.Context()
	result, err := s.monitor.Check(ctx)
	var driftInfo *chatDriftInfo
	switch {
	case err != nil && errors.Is(err, drift.ErrRebuildFailed):
		// Stale caches were already purged; the index rebuild retries on
		// the next drift cycle. Keep answering.
		logger.Warn("chat: index rebuild failed after drift", "error", err)
		driftInfo = &chatDriftInfo{Kind: string(result.Kind), Database: result.Database}
	case err != nil:
		logger.Warn("chat: drift check failed, using last known schema", "error", err)
	case result.Kind.Changed():
		driftInfo = &chatDriftInfo{
			Kind:          string(result.Kind),
			Database:      result.Database,
			AddedTables:   result.AddedTables,
			RemovedTables: result.RemovedTables,
		}
	}

	tables := s.monitor.Tables()
	category := s.classifier.Classify(ctx, question, tables)
	resp := chatResponse{Category: string(category), Drift: driftInfo}

	switch category {
	case intent.CategoryGreeting:
		resp.Message = "Hello! Ask me anything about the data and I will write the SQL for you."
	case intent.CategoryGeneral:
		resp.Message = fmt.Sprintf(
			"I translate questions into SQL against the %q database. Currently visible tables: %s.",
			s.monitor.Database(), strings.Join(tables, ", "),
		)
	case intent.CategoryIrrelevant:
		resp.Message = "I could not relate that to the data. Try asking about the available tables."
	case intent.CategoryQuery:
		if err := s.answerQuery(r, question, &resp); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) answerQuery(r *http.Request, question string, resp *chatResponse) error {
	ctx := r.Context()
	logger := common.Logger()

	var docs []string
	if s.index != nil {
		found, err := s.index.Search(ctx, question, contextDocLimit)
		if err != nil {
			logger.Warn("chat: context retrieval failed, generating without index", "error", err)
		} else {
			docs = found
		}
	}
	if len(docs) == 0 {
		// Degrade to the raw snapshot when the index is unavailable.
		snap := s.monitor.Snapshot()
		for _, table := range snap.TableNames() {
			docs = append(docs, fmt.Sprintf("Table %s: %s", table, strings.Join(snap.Columns(table), ", ")))
		}
	}

	sql, err := s.generator.Generate(ctx, sqlgen.Request{
		Question:     question,
		Database:     s.monitor.Database(),
		Context:      docs,
		RecentTables: s.monitor.LastAddedTables(),
	})
	if err != nil {
		return fmt.Errorf("sql generation failed: %w", err)
	}
	resp.SQL = sql

	result, err := s.executor.Execute(ctx, sql)
	if err != nil {
		return fmt.Errorf("query execution failed: %w", err)
	}
	resp.Result = result
	return nil
}
