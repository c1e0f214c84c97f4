// Package cache memoises analysis results for the lifetime of the host process.
//
// Entries are keyed by the exact input text plus the requested checks in
// canonical order, so requesting the same checks in a different order hits the
// same entry. There is no TTL: the owner calls Clear whenever the credential or
// language changes, since those alter provider output without altering the key.
//
// A cache created with WithMaxEntries evicts the oldest insertion once full;
// the default is unbounded.
package cache

import (
	"strings"
	"sync"

	"github.com/GriffinCanCode/TextWarden/internal/domain/issue"
	"github.com/GriffinCanCode/TextWarden/internal/shared/utils"
)

// Stats is a point-in-time view of cache usage
type Stats struct {
	Entries int    `json:"entries"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Clears  uint64 `json:"clears"`
}

// Cache maps (text, checks) to issue sequences
type Cache struct {
	mu         sync.RWMutex
	entries    map[string][]issue.Issue // Protected by mu
	order      []string                 // insertion order, Protected by mu
	maxEntries int
	hasher     *utils.Hasher
	stats      Stats // Protected by mu
}

// Option configures a Cache
type Option func(*Cache)

// WithMaxEntries bounds the cache; zero or negative means unbounded
func WithMaxEntries(n int) Option {
	return func(c *Cache) {
		c.maxEntries = n
	}
}

// New creates an empty cache
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string][]issue.Issue),
		hasher:  utils.DefaultHasher(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key returns the cache key for text and checks
func (c *Cache) Key(text string, checks []issue.Check) string {
	canonical := issue.Strings(issue.Canonical(checks))
	return c.hasher.HashParts(text, strings.Join(canonical, ","))
}

// Get returns a copy of the cached issues, if present
func (c *Cache) Get(text string, checks []issue.Check) ([]issue.Issue, bool) {
	key := c.Key(text, checks)

	c.mu.Lock()
	defer c.mu.Unlock()

	issues, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	c.stats.Hits++
	return clone(issues), true
}

// Put stores a copy of issues under (text, checks)
func (c *Cache) Put(text string, checks []issue.Check, issues []issue.Issue) {
	key := c.Key(text, checks)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = clone(issues)

	if c.maxEntries > 0 {
		for len(c.order) > c.maxEntries {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
	}
}

// Clear drops every entry
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string][]issue.Issue)
	c.order = nil
	c.stats.Clears++
}

// Len returns the number of entries
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns usage counters
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := c.stats
	s.Entries = len(c.entries)
	return s
}

func clone(issues []issue.Issue) []issue.Issue {
	out := make([]issue.Issue, len(issues))
	copy(out, issues)
	return out
}
