// File path: internal/api/server_test.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/luhcrodrigues/sqlpilot/internal/catalog"
	"github.com/luhcrodrigues/sqlpilot/internal/drift"
	"github.com/luhcrodrigues/sqlpilot/internal/intent"
	"github.com/luhcrodrigues/sqlpilot/internal/llm"
	"github.com/luhcrodrigues/sqlpilot/internal/sqlgen"
)

type fakeInspector struct {
	snap     catalog.Snapshot
	database string
	err      error
}

func (f *fakeInspector) Inspect(ctx context.Context) (catalog.Snapshot, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	return f.snap.Clone(), f.database, nil
}

// queueProvider returns scripted chat answers in order. The classifier and
// the generator share one provider, so tests enqueue both replies.
type queueProvider struct {
	answers []string
}

func (q *queueProvider) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	if len(q.answers) == 0 {
		return "", errors.New("no scripted answer left")
	}
	answer := q.answers[0]
	q.answers = q.answers[1:]
	return answer, nil
}

func (q *queueProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	return nil, errors.New("not implemented")
}

func (q *queueProvider) Name() string { return "queue" }

func newTestServer(t *testing.T, inspector catalog.Inspector, provider llm.Provider) *Server {
	t.Helper()
	db, err := sqlx.Open("sqlite", filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.Exec(`CREATE TABLE customers (id INTEGER PRIMARY KEY, name TEXT);
                INSERT INTO customers (id, name) VALUES (1, 'ana'), (2, 'bruno')`); err != nil {
		t.Fatalf("seed db: %v", err)
	}

	monitor := drift.NewMonitor(inspector)
	classifier := intent.NewClassifier(provider, intent.NewCache())
	generator := sqlgen.NewGenerator(provider, "sqlite")
	executor := sqlgen.NewExecutor(db, 0, time.Second)

	srv, err := NewServer(monitor, classifier, nil, generator, executor, provider)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &fakeInspector{database: "sales"}, &queueProvider{})
	rec := doJSON(t, srv, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected healthz response: %d %q", rec.Code, rec.Body.String())
	}
}

func TestChatRejectsEmptyQuestion(t *testing.T) {
	srv := newTestServer(t, &fakeInspector{database: "sales"}, &queueProvider{})
	rec := doJSON(t, srv, http.MethodPost, "/v1/chat", `{"question":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestChatGreeting(t *testing.T) {
	inspector := &fakeInspector{snap: catalog.Snapshot{"customers": {"id", "name"}}, database: "sales"}
	provider := &queueProvider{answers: []string{"GREETING"}}
	srv := newTestServer(t, inspector, provider)

	rec := doJSON(t, srv, http.MethodPost, "/v1/chat", `{"question":"hello"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Category string `json:"category"`
		Message  string `json:"message"`
		SQL      string `json:"sql"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Category != "greeting" || resp.Message == "" || resp.SQL != "" {
		t.Fatalf("unexpected greeting response: %+v", resp)
	}
}

func TestChatQueryExecutesSQL(t *testing.T) {
	inspector := &fakeInspector{snap: catalog.Snapshot{"customers": {"id", "name"}}, database: "sales"}
	provider := &queueProvider{answers: []string{
		"QUERY_SQL",
		"```sql\nSELECT name FROM customers ORDER BY id\n```",
	}}
	srv := newTestServer(t, inspector, provider)

	rec := doJSON(t, srv, http.MethodPost, "/v1/chat", `{"question":"list customer names"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Category string `json:"category"`
		SQL      string `json:"sql"`
		Result   struct {
			Columns []string                 `json:"columns"`
			Rows    []map[string]interface{} `json:"rows"`
		} `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Category != "query_sql" {
		t.Fatalf("unexpected category: %s", resp.Category)
	}
	if resp.SQL != "SELECT name FROM customers ORDER BY id" {
		t.Fatalf("unexpected sql: %q", resp.SQL)
	}
	if len(resp.Result.Rows) != 2 || resp.Result.Rows[0]["name"] != "ana" {
		t.Fatalf("unexpected rows: %v", resp.Result.Rows)
	}
}

func TestChatSurvivesCatalogOutage(t *testing.T) {
	inspector := &fakeInspector{err: catalog.ErrUnavailable}
	provider := &queueProvider{answers: []string{"GREETING"}}
	srv := newTestServer(t, inspector, provider)

	rec := doJSON(t, srv, http.MethodPost, "/v1/chat", `{"question":"hi"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("catalog outage must not fail chat: %d %s", rec.Code, rec.Body.String())
	}
}

func TestSchemaEndpointReflectsObservation(t *testing.T) {
	inspector := &fakeInspector{snap: catalog.Snapshot{"customers": {"id", "name"}}, database: "sales"}
	provider := &queueProvider{answers: []string{"GREETING"}}
	srv := newTestServer(t, inspector, provider)

	doJSON(t, srv, http.MethodPost, "/v1/chat", `{"question":"hello"}`)

	rec := doJSON(t, srv, http.MethodGet, "/v1/schema", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp schemaResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Database != "sales" || len(resp.Tables) != 1 || resp.Tables[0] != "customers" {
		t.Fatalf("unexpected schema response: %+v", resp)
	}
	if resp.Fingerprint == "" {
		t.Fatalf("fingerprint missing after observation")
	}
}

func TestSchemaChangesRejectsBadLimit(t *testing.T) {
	srv := newTestServer(t, &fakeInspector{database: "sales"}, &queueProvider{})
	rec := doJSON(t, srv, http.MethodGet, "/v1/schema/changes?limit=abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSchemaRefreshReportsOutage(t *testing.T) {
	srv := newTestServer(t, &fakeInspector{err: catalog.ErrUnavailable}, &queueProvider{})
	rec := doJSON(t, srv, http.MethodPost, "/v1/schema/refresh", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestSchemaRefreshDetectsDrift(t *testing.T) {
	inspector := &fakeInspector{snap: catalog.Snapshot{"customers": {"id"}}, database: "sales"}
	srv := newTestServer(t, inspector, &queueProvider{})

	if rec := doJSON(t, srv, http.MethodPost, "/v1/schema/refresh", ""); rec.Code != http.StatusOK {
		t.Fatalf("baseline refresh failed: %d", rec.Code)
	}
	inspector.snap = catalog.Snapshot{"customers": {"id"}, "products": {"id", "price"}}
	rec := doJSON(t, srv, http.MethodPost, "/v1/schema/refresh", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("drift refresh failed: %d", rec.Code)
	}
	var resp struct {
		Result drift.Result `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Result.Kind != drift.KindSchemaChange {
		t.Fatalf("expected schema_change, got %s", resp.Result.Kind)
	}
	if len(resp.Result.AddedTables) != 1 || resp.Result.AddedTables[0] != "products" {
		t.Fatalf("unexpected added tables: %v", resp.Result.AddedTables)
	}
}
