// Package cache holds prepared statements keyed by their SQL text so that
// repeated builder renders reuse the same server-side statement.
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/jmoiron/sqlx"
)

// DefaultCapacity is the default maximum number of cached prepared statements.
const DefaultCapacity = 256

// StmtCache is an LRU of prepared statements. It is safe for concurrent use.
// Evicted statements are closed.
type StmtCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type entry struct {
	sql  string
	stmt *sqlx.Stmt
}

// New creates a statement cache. Non-positive capacities fall back to
// DefaultCapacity.
func New(capacity int) *StmtCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &StmtCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

// Get returns the statement cached for sql and marks it most recently used.
func (c *StmtCache) Get(sql string) (*sqlx.Stmt, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[sql]
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.order.MoveToFront(elem)
	c.hits.Add(1)
	return elem.Value.(*entry).stmt, true
}

// Put caches stmt under sql. If another goroutine cached the same SQL first,
// the cached statement wins, stmt is closed and the winner is returned.
func (c *StmtCache) Put(sql string, stmt *sqlx.Stmt) *sqlx.Stmt {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[sql]; ok {
		c.order.MoveToFront(elem)
		_ = stmt.Close()
		return elem.Value.(*entry).stmt
	}

	for c.order.Len() >= c.capacity {
		c.evictOldest()
	}
	c.entries[sql] = c.order.PushFront(&entry{sql: sql, stmt: stmt})
	return stmt
}

// evictOldest must be called with c.mu held.
func (c *StmtCache) evictOldest() {
	elem := c.order.Back()
	if elem == nil {
		return
	}
	c.order.Remove(elem)
	e := elem.Value.(*entry)
	delete(c.entries, e.sql)
	_ = e.stmt.Close()
	c.evictions.Add(1)
}

// Clear closes and drops every cached statement.
func (c *StmtCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		_ = elem.Value.(*entry).stmt.Close()
	}
	c.entries = make(map[string]*list.Element, c.capacity)
	c.order.Init()
}

// Stats holds cache performance metrics.
type Stats struct {
	Size      int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRate returns hits / (hits + misses), or 0 before the first lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Stats returns a snapshot of the cache counters.
func (c *StmtCache) Stats() Stats {
	c.mu.Lock()
	size := c.order.Len()
	c.mu.Unlock()

	return Stats{
		Size:      size,
		Capacity:  c.capacity,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}
