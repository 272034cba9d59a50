// File path: internal/vector/index.go
package vector

import (
	"context"
	"fmt"
	"strings"

	"github.com/luhcrodrigues/sqlpilot/internal/catalog"
	"github.com/luhcrodrigues/sqlpilot/internal/common"
)

// Embedder turns texts into vectors. Satisfied by llm.Provider.
type Embedder interface {
	Embed(ctx context.Context, input []string) ([][]float32, error)
}

// Index maintains the semantic context collection derived from the schema.
// It is rebuilt wholesale whenever drift is detected; between drift events
// the collection is reused as-is.
type Index struct {
	store    Store
	embedder Embedder
}

func NewIndex(store Store, embedder Embedder) *Index {
	return &Index{store: store, embedder: embedder}
}

// baseDocs are static SQL guidance snippets retrieved alongside the schema.
var baseDocs = []SchemaDoc{
	{
		ID:       "guide_functions",
		Text:     "SQL aggregates: COUNT(*), SUM(), AVG(), MIN(), MAX(); date parts via YEAR(col), MONTH(col) or strftime",
		Metadata: map[string]interface{}{"kind": "functions"},
	},
	{
		ID:       "guide_joins",
		Text:     "JOIN example: FROM customers c JOIN orders o ON c.id = o.customer_id",
		Metadata: map[string]interface{}{"kind": "joins"},
	},
	{
		ID:       "guide_grouping",
		Text:     "GROUP BY is required with aggregates. Example: SELECT state, COUNT(*) FROM customers GROUP BY state",
		Metadata: map[string]interface{}{"kind": "syntax"},
	},
}

// BuildDocs renders one retrievable document per table plus the static
// guidance docs.
func BuildDocs(snap catalog.Snapshot, database string) []SchemaDoc {
	docs := make([]SchemaDoc, 0, len(snap)+len(baseDocs))
	docs = append(docs, baseDocs...)
	for _, table := range snap.TableNames() {
		columns := snap.Columns(table)
		text := fmt.Sprintf("[%s] Table %s:\n  %s", database, table, strings.Join(columns, ", "))
		docs = append(docs, SchemaDoc{
			ID:   "schema_" + table,
			Text: text,
			Metadata: map[string]interface{}{
				"kind":     "schema",
				"table":    table,
				"database": database,
			},
		})
	}
	return docs
}

// Rebuild drops the collection and reindexes the given snapshot. Implements
// the drift orchestrator's rebuilder contract.
func (i *Index) Rebuild(ctx context.Context, snap catalog.Snapshot, database string) error {
	if i == nil || i.store == nil {
		return nil
	}
	logger := common.Logger()
	docs := BuildDocs(snap, database)
	texts := make([]string, len(docs))
	for idx, doc := range docs {
		texts[idx] = doc.Text
	}
	vectors, err := i.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed schema docs: %w", err)
	}
	if err := i.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset collection: %w", err)
	}
	if err := i.store.UpsertDocs(ctx, docs, vectors); err != nil {
		return fmt.Errorf("upsert schema docs: %w", err)
	}
	logger.Info("vector: schema index rebuilt", "database", database, "docs", len(docs))
	return nil
}

// Search embeds the query and returns the text of the closest documents.
func (i *Index) Search(ctx context.Context, query string, limit int) ([]string, error) {
	if i == nil || i.store == nil {
		return nil, nil
	}
	vectors, err := i.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, nil
	}
	results, err := i.store.Search(ctx, vectors[0], limit)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(results))
	for _, result := range results {
		if content, ok := result.Payload["content"].(string); ok && strings.TrimSpace(content) != "" {
			texts = append(texts, content)
		}
	}
	return texts, nil
}
