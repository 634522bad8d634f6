package colorspec

import "sync"

// Cache memoizes Decode results keyed by the raw specification string.
//
// Specifications are immutable values, so entries never need invalidation.
// Failed decodes are cached too, which keeps a broken rule from being
// re-parsed for every pixel.
//
// Cache is safe for concurrent use by multiple goroutines.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	color RGBA
	err   error
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
	}
}

// Decode returns the cached sample for s, decoding and storing it on first use.
// A nil Cache decodes without memoizing.
func (c *Cache) Decode(s string) (RGBA, error) {
	if c == nil {
		return Decode(s)
	}

	c.mu.RLock()
	if e, ok := c.entries[s]; ok {
		c.mu.RUnlock()
		return e.color, e.err
	}
	c.mu.RUnlock()

	color, err := Decode(s)

	c.mu.Lock()
	c.entries[s] = cacheEntry{color: color, err: err}
	c.mu.Unlock()

	return color, err
}

// Len returns the number of memoized specifications.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops all memoized entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}
