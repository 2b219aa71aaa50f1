package core

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jinzhu/now"
	"github.com/stretchr/testify/require"

	"github.com/coregx/wee/internal/dialects"
)

// mockConn returns a connection that can render but not execute.
func mockConn(dialect string) *Conn {
	return &Conn{dialect: dialects.GetDialect(dialect), ctx: context.Background()}
}

const testSchema = `
CREATE TABLE users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	email TEXT UNIQUE,
	password TEXT,
	is_admin INTEGER NOT NULL DEFAULT 0,
	created_at TEXT,
	updated_at TEXT,
	deleted_at TEXT
);
CREATE TABLE posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER REFERENCES users(id),
	title TEXT NOT NULL,
	views INTEGER NOT NULL DEFAULT 0,
	created_at TEXT,
	updated_at TEXT
);
CREATE TABLE profiles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER REFERENCES users(id),
	bio TEXT
);
CREATE TABLE tags (
	id TEXT PRIMARY KEY,
	label TEXT NOT NULL
);
`

// queryLog records the statements a connection executes.
type queryLog struct {
	mu     sync.Mutex
	events []QueryEvent
}

func (l *queryLog) hook(_ context.Context, e QueryEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *queryLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

func (l *queryLog) last() QueryEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.events[len(l.events)-1]
}

func (l *queryLog) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}

// fixedClock is 2024-03-15 10:30:00 UTC, advanced by tick.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFixedClock() *fixedClock {
	return &fixedClock{t: now.With(time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)).BeginningOfMinute()}
}

func (c *fixedClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) tick(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// setupTestConn opens an in-memory SQLite database with the test schema.
// A single connection keeps every statement on the same in-memory database.
func setupTestConn(t *testing.T, opts ...Option) (*Conn, *queryLog) {
	t.Helper()

	log := &queryLog{}
	opts = append([]Option{WithMaxOpenConns(1), WithQueryHook(log.hook)}, opts...)
	conn, err := Open("sqlite", ":memory:?_pragma=foreign_keys(1)", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	for _, stmt := range strings.Split(testSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err = conn.DB().Exec(stmt)
		require.NoError(t, err)
	}
	return conn, log
}
