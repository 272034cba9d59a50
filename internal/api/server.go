// File path: internal/api/server.go
package api

import (
	"encoding/json"
	"expvar"
	"fmt"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/luhcrodrigues/sqlpilot/internal/common"
	"github.com/luhcrodrigues/sqlpilot/internal/drift"
	"github.com/luhcrodrigues/sqlpilot/internal/intent"
	"github.com/luhcrodrigues/sqlpilot/internal/llm"
	"github.com/luhcrodrigues/sqlpilot/internal/sqlgen"
	"github.com/luhcrodrigues/sqlpilot/internal/vector"
)

// Server exposes the assistant over HTTP: the chat endpoint plus schema
// observability and operational routes.
type Server struct {
	router     chi.Router
	monitor    *drift.Monitor
	classifier *intent.Classifier
	index      *vector.Index
	generator  *sqlgen.Generator
	executor   *sqlgen.Executor
	provider   llm.Provider
}

func NewServer(monitor *drift.Monitor, classifier *intent.Classifier, index *vector.Index, generator *sqlgen.Generator, executor *sqlgen.Executor, provider llm.Provider) (*Server, error) {
	if monitor == nil {
		return nil, fmt.Errorf("drift monitor required")
	}
	if classifier == nil {
		return nil, fmt.Errorf("intent classifier required")
	}
	if generator == nil || executor == nil {
		return nil, fmt.Errorf("sql generator and executor required")
	}
	providerName := "unknown"
	if provider != nil {
		providerName = provider.Name()
	}
	common.Logger().Info("api: building server", "provider", providerName)
	srv := &Server{
		router:     chi.NewRouter(),
		monitor:    monitor,
		classifier: classifier,
		index:      index,
		generator:  generator,
		executor:   executor,
		provider:   provider,
	}
	srv.routes()
	return srv, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	logger := common.Logger()
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Post("/v1/chat", s.handleChat)
	s.router.Get("/v1/schema", s.handleSchema)
	s.router.Get("/v1/schema/changes", s.handleSchemaChanges)
	s.router.Post("/v1/schema/refresh", s.handleSchemaRefresh)
	s.router.Get("/v1/logs", s.handleLogs)
	s.router.Handle("/debug/vars", expvar.Handler())
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": common.LogEntries()})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
