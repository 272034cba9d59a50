// File path: internal/intent/classifier.go
package intent

import (
	"context"
	"strings"

	"github.com/tmc/langchaingo/prompts"

	"github.com/luhcrodrigues/sqlpilot/internal/common"
	"github.com/luhcrodrigues/sqlpilot/internal/common/telemetry"
	"github.com/luhcrodrigues/sqlpilot/internal/llm"
)

var classifyPrompt = prompts.NewPromptTemplate(
	`You are an intent classifier for a SQL assistant.

AVAILABLE TABLES: {{.tables}}

USER QUESTION: "{{.question}}"

Classify the question into exactly ONE category:

1. GREETING - salutations (hi, hello, good morning)
2. GENERAL - questions about the assistant itself ("how do you work?", "what can you do?")
3. QUERY_SQL - a question that requires a SQL query over the data
4. IRRELEVANT - text without meaning for this assistant

RULES:
- Mentions of data, tables or analyses -> QUERY_SQL
- Questions about the assistant -> GENERAL
- Salutations -> GREETING
- Nonsense -> IRRELEVANT

Answer with the category name only (one word).

CATEGORY:`,
	[]string{"tables", "question"},
)

// Classifier decides whether a question needs SQL generation or a canned
// response. Results are memoized per schema epoch; a classifier failure
// fails open to CategoryQuery so the assistant attempts an answer instead
// of refusing.
type Classifier struct {
	provider llm.Provider
	cache    *Cache
}

func NewClassifier(provider llm.Provider, cache *Cache) *Classifier {
	return &Classifier{provider: provider, cache: cache}
}

// Classify returns the intent category for a question given the currently
// known table names.
func (c *Classifier) Classify(ctx context.Context, question string, tables []string) Category {
	logger := common.Logger()
	if c.cache != nil {
		if category, ok := c.cache.Lookup(question); ok {
			telemetry.RecordClassification(true)
			logger.Debug("intent: cache hit", "category", category)
			return category
		}
	}
	telemetry.RecordClassification(false)

	prompt, err := classifyPrompt.Format(map[string]any{
		"tables":   strings.Join(tables, ", "),
		"question": strings.TrimSpace(question),
	})
	if err != nil {
		logger.Error("intent: prompt assembly failed", "error", err)
		return CategoryQuery
	}
	answer, err := c.provider.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		logger.Warn("intent: classification call failed, assuming query", "error", err)
		return CategoryQuery
	}
	category := ParseCategory(answer)
	if c.cache != nil {
		c.cache.Store(question, category)
	}
	logger.Debug("intent: classified", "category", category)
	return category
}
