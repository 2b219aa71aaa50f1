package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func prepare(t *testing.T, db *sqlx.DB, query string) *sqlx.Stmt {
	t.Helper()
	stmt, err := db.Preparex(query)
	require.NoError(t, err)
	return stmt
}

func TestNew_Capacity(t *testing.T) {
	assert.Equal(t, 10, New(10).Stats().Capacity)
	assert.Equal(t, DefaultCapacity, New(0).Stats().Capacity)
	assert.Equal(t, DefaultCapacity, New(-5).Stats().Capacity)
}

func TestStmtCache_GetPut(t *testing.T) {
	db := openTestDB(t)
	c := New(4)

	_, ok := c.Get("SELECT 1")
	assert.False(t, ok)

	stmt := prepare(t, db, "SELECT 1")
	assert.Same(t, stmt, c.Put("SELECT 1", stmt))

	got, ok := c.Get("SELECT 1")
	require.True(t, ok)
	assert.Same(t, stmt, got)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate(), 0.001)
}

func TestStmtCache_PutKeepsFirst(t *testing.T) {
	db := openTestDB(t)
	c := New(4)

	first := prepare(t, db, "SELECT 1")
	second := prepare(t, db, "SELECT 1")

	c.Put("SELECT 1", first)
	assert.Same(t, first, c.Put("SELECT 1", second))
	assert.Equal(t, 1, c.Stats().Size)
}

func TestStmtCache_EvictsLeastRecentlyUsed(t *testing.T) {
	db := openTestDB(t)
	c := New(2)

	c.Put("SELECT 1", prepare(t, db, "SELECT 1"))
	c.Put("SELECT 2", prepare(t, db, "SELECT 2"))

	// Touch SELECT 1 so SELECT 2 becomes the eviction candidate.
	_, ok := c.Get("SELECT 1")
	require.True(t, ok)

	c.Put("SELECT 3", prepare(t, db, "SELECT 3"))

	_, ok = c.Get("SELECT 2")
	assert.False(t, ok)
	_, ok = c.Get("SELECT 1")
	assert.True(t, ok)
	_, ok = c.Get("SELECT 3")
	assert.True(t, ok)
	assert.Equal(t, uint64(1), c.Stats().Evictions)
}

func TestStmtCache_Clear(t *testing.T) {
	db := openTestDB(t)
	c := New(4)
	c.Put("SELECT 1", prepare(t, db, "SELECT 1"))
	c.Put("SELECT 2", prepare(t, db, "SELECT 2"))

	c.Clear()

	assert.Equal(t, 0, c.Stats().Size)
	_, ok := c.Get("SELECT 1")
	assert.False(t, ok)
}

func TestStmtCache_Concurrent(t *testing.T) {
	db := openTestDB(t)
	c := New(8)

	queries := make([]string, 16)
	stmts := make([]*sqlx.Stmt, 16)
	for i := range queries {
		queries[i] = fmt.Sprintf("SELECT %d", i)
		stmts[i] = prepare(t, db, queries[i])
	}

	var wg sync.WaitGroup
	for i := range queries {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Put(queries[i], stmts[i])
			c.Get(queries[(i+1)%len(queries)])
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Stats().Size, 8)
}
