// File path: internal/intent/category.go
package intent

import "strings"

// Category is the closed set of question intents the assistant handles.
type Category string

const (
	// CategoryGreeting covers salutations with no data content.
	CategoryGreeting Category = "greeting"
	// CategoryGeneral covers questions about the assistant itself.
	CategoryGeneral Category = "general"
	// CategoryQuery covers questions answered by generating and running SQL.
	CategoryQuery Category = "query_sql"
	// CategoryIrrelevant covers text the assistant cannot act on.
	CategoryIrrelevant Category = "irrelevant"
)

// ParseCategory maps raw classifier output onto the closed category set.
// Unrecognized output falls back to CategoryQuery: attempting a query is
// preferred over refusing to answer.
func ParseCategory(raw string) Category {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "GREETING", "SAUDACAO":
		return CategoryGreeting
	case "GENERAL", "GENERICA":
		return CategoryGeneral
	case "QUERY_SQL", "QUERY", "SQL":
		return CategoryQuery
	case "IRRELEVANT", "IRRELEVANTE":
		return CategoryIrrelevant
	default:
		return CategoryQuery
	}
}
