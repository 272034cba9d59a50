// File path: internal/sqlgen/generator.go
package sqlgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/prompts"

	"github.com/luhcrodrigues/sqlpilot/internal/llm"
)

var generatePrompt = prompts.NewPromptTemplate(
	`You are a SQL assistant for a {{.dialect}} database named "{{.database}}".

Relevant schema and examples:
{{.context}}
{{.recent}}
Write one {{.dialect}} SELECT statement that answers the question below.
Use only tables and columns that appear in the schema above.
Return the SQL statement and nothing else, no markdown, no commentary.

Question: {{.question}}
SQL:`,
	[]string{"dialect", "database", "context", "recent", "question"},
)

// Generator turns a natural-language question plus retrieved schema context
// into a single SQL statement.
type Generator struct {
	provider llm.Provider
	dialect  string
}

func NewGenerator(provider llm.Provider, dialect string) *Generator {
	if strings.TrimSpace(dialect) == "" {
		dialect = "sqlite"
	}
	return &Generator{provider: provider, dialect: dialect}
}

// Request carries everything the prompt needs for one generation.
type Request struct {
	Question     string
	Database     string
	Context      []string
	RecentTables []string
}

func (g *Generator) Generate(ctx context.Context, req Request) (string, error) {
	contextBlock := strings.Join(req.Context, "\n\n")
	if strings.TrimSpace(contextBlock) == "" {
		contextBlock = "(no schema context retrieved)"
	}
	recent := ""
	if len(req.RecentTables) > 0 {
		recent = fmt.Sprintf("Recently added tables, prefer these when relevant: %s\n", strings.Join(req.RecentTables, ", "))
	}
	prompt, err := generatePrompt.Format(map[string]any{
		"dialect":  g.dialect,
		"database": req.Database,
		"context":  contextBlock,
		"recent":   recent,
		"question": req.Question,
	})
	if err != nil {
		return "", fmt.Errorf("format sql prompt: %w", err)
	}
	raw, err := g.provider.Chat(ctx, []llm.Message{
		{Role: "system", Content: "You translate questions into SQL. Reply with SQL only."},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return "", fmt.Errorf("generate sql: %w", err)
	}
	sql := CleanSQL(raw)
	if sql == "" {
		return "", fmt.Errorf("generate sql: model returned empty statement")
	}
	return sql, nil
}

// CleanSQL strips markdown fences, language tags and invisible characters
// that chat models tend to wrap statements in.
func CleanSQL(raw string) string {
	s := strings.TrimSpace(raw)
	for _, garbage := range []string{"\u200b", "\u200c", "\u200d", "\ufeff"} {
		s = strings.ReplaceAll(s, garbage, "")
	}
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if idx := strings.Index(s, "\n"); idx >= 0 {
			first := strings.TrimSpace(s[:idx])
			// A short first line after the fence is a language tag.
			if len(first) <= 10 && !strings.ContainsAny(first, " \t") {
				s = s[idx+1:]
			}
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ";")
	return strings.TrimSpace(s)
}
