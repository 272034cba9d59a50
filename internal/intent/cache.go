// File path: internal/intent/cache.go
package intent

import (
	"strings"
	"sync"
)

// Cache memoizes classification results for the lifetime of a schema epoch.
// Keys are normalized question texts; entries never expire on their own and
// are only removed by Purge when drift is detected.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Category
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]Category)}
}

// NormalizeQuestion lower-cases and trims a question so that case and
// surrounding whitespace do not defeat memoization.
func NormalizeQuestion(question string) string {
	return strings.ToLower(strings.TrimSpace(question))
}

// Lookup returns the memoized category for a question, if present.
func (c *Cache) Lookup(question string) (Category, bool) {
	key := NormalizeQuestion(question)
	c.mu.RLock()
	defer c.mu.RUnlock()
	category, ok := c.entries[key]
	return category, ok
}

// Store memoizes a category under the normalized question text.
func (c *Cache) Store(question string, category Category) {
	key := NormalizeQuestion(question)
	c.mu.Lock()
	c.entries[key] = category
	c.mu.Unlock()
}

// Purge drops every entry. The map swap happens under the write lock, so a
// concurrent Lookup observes either the pre-clear or the fully cleared
// state. Purging an empty cache is a no-op.
func (c *Cache) Purge() {
	c.mu.Lock()
	if len(c.entries) > 0 {
		c.entries = make(map[string]Category)
	}
	c.mu.Unlock()
}

// Len reports the number of memoized entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
