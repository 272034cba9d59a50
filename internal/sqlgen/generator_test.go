// File path: internal/sqlgen/generator_test.go
package sqlgen

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/luhcrodrigues/sqlpilot/internal/llm"
)

type scriptedProvider struct {
	answer string
	err    error
	prompt string
}

func (s *scriptedProvider) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	if len(messages) > 0 {
		s.prompt = messages[len(messages)-1].Content
	}
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func (s *scriptedProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	return nil, errors.New("not implemented")
}

func (s *scriptedProvider) Name() string { return "scripted" }

func TestCleanSQL(t *testing.T) {
	cases := map[string]string{
		"SELECT 1":                            "SELECT 1",
		"```sql\nSELECT * FROM customers\n```": "SELECT * FROM customers",
		"```\nSELECT id FROM orders;\n```":     "SELECT id FROM orders",
		"  SELECT name FROM t;  ":              "SELECT name FROM t",
		"\u200bSELECT\u200b 1\ufeff":           "SELECT 1",
	}
	for raw, want := range cases {
		if got := CleanSQL(raw); got != want {
			t.Fatalf("CleanSQL(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestGenerateCleansModelOutput(t *testing.T) {
	provider := &scriptedProvider{answer: "```sql\nSELECT COUNT(*) FROM orders;\n```"}
	gen := NewGenerator(provider, "sqlite")
	sql, err := gen.Generate(context.Background(), Request{
		Question: "how many orders?",
		Database: "sales",
		Context:  []string{"[sales] Table orders:\n  id, customer_id"},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if sql != "SELECT COUNT(*) FROM orders" {
		t.Fatalf("unexpected sql: %q", sql)
	}
	if !strings.Contains(provider.prompt, "Table orders") {
		t.Fatalf("prompt missing schema context: %q", provider.prompt)
	}
}

func TestGenerateIncludesRecentTablesHint(t *testing.T) {
	provider := &scriptedProvider{answer: "SELECT 1"}
	gen := NewGenerator(provider, "postgres")
	_, err := gen.Generate(context.Background(), Request{
		Question:     "products?",
		Database:     "sales",
		RecentTables: []string{"products"},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(provider.prompt, "Recently added tables") || !strings.Contains(provider.prompt, "products") {
		t.Fatalf("prompt missing recent-tables hint: %q", provider.prompt)
	}
}

func TestGenerateRejectsEmptyAnswer(t *testing.T) {
	provider := &scriptedProvider{answer: "```\n\n```"}
	gen := NewGenerator(provider, "sqlite")
	if _, err := gen.Generate(context.Background(), Request{Question: "q", Database: "d"}); err == nil {
		t.Fatalf("expected error for empty model output")
	}
}

func TestGeneratePropagatesProviderError(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("backend down")}
	gen := NewGenerator(provider, "sqlite")
	if _, err := gen.Generate(context.Background(), Request{Question: "q", Database: "d"}); err == nil {
		t.Fatalf("expected provider error")
	}
}
