package bezier

import "sync"

// key is the 4-byte control-point tuple used to intern curves, ignoring
// interval: two curves built from the same control points but different
// intervals share a cache slot, and the wider interval wins.
type key struct {
	c0, c1 Point
}

// Cache interns Curve instances by control-point tuple. It uses a
// reader-preferring lock with best-effort non-blocking semantics: if the
// lock cannot be acquired immediately, GetOrNew builds and returns a
// throwaway curve instead of blocking the caller. This keeps the
// per-frame evaluation path free of stalls.
type Cache struct {
	mu      sync.RWMutex
	entries map[key]*Curve
}

// NewCache returns an empty, ready-to-use cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[key]*Curve)}
}

// GetOrNew returns a cached curve for (c0, c1) if one exists with
// interval >= the requested interval; otherwise it builds a fresh curve
// and inserts it. If the cache lock cannot be acquired without blocking,
// it builds and returns a throwaway curve that is never inserted.
func (c *Cache) GetOrNew(c0, c1 Point, interval int) *Curve {
	k := key{c0, c1}

	if c.mu.TryRLock() {
		existing, ok := c.entries[k]
		c.mu.RUnlock()
		if ok && existing.Interval() >= interval {
			return existing
		}
	} else {
		return New(c0, c1, interval)
	}

	fresh := New(c0, c1, interval)

	if !c.mu.TryLock() {
		return fresh
	}
	defer c.mu.Unlock()

	if existing, ok := c.entries[k]; ok && existing.Interval() >= interval {
		return existing
	}
	c.entries[k] = fresh
	return fresh
}

// Clone returns a new, empty cache. Cloning never copies interned
// curves; each clone starts cold.
func (c *Cache) Clone() *Cache {
	return NewCache()
}
