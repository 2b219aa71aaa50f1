package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/coregx/wee/internal/cache"
	"github.com/coregx/wee/internal/dialects"
	"github.com/coregx/wee/internal/logger"
	"github.com/coregx/wee/internal/tracer"
)

// Conn is a database handle. It wraps a connection pool and is safe for
// concurrent use. Begin returns a transaction-bound copy; every statement
// issued through that copy runs inside the transaction.
type Conn struct {
	db         *sqlx.DB
	tx         *sqlx.Tx
	txDone     *atomic.Bool
	driverName string
	dialect    dialects.Dialect
	stmtCache  *cache.StmtCache
	logger     logger.Logger
	sanitizer  *logger.Sanitizer
	tracer     tracer.Tracer
	queryHook  QueryHook
	clock      func() time.Time
	lastID     *lastInsert
	health     *healthMonitor
	ctx        context.Context
}

type lastInsert struct {
	mu sync.Mutex
	id any
}

// Option is a functional option for configuring Conn.
type Option func(*Conn)

// WithMaxOpenConns sets the maximum number of open connections.
func WithMaxOpenConns(n int) Option {
	return func(c *Conn) {
		c.db.SetMaxOpenConns(n)
	}
}

// WithMaxIdleConns sets the maximum number of idle connections.
func WithMaxIdleConns(n int) Option {
	return func(c *Conn) {
		c.db.SetMaxIdleConns(n)
	}
}

// WithConnMaxLifetime sets the maximum time a connection may be reused.
func WithConnMaxLifetime(d time.Duration) Option {
	return func(c *Conn) {
		c.db.SetConnMaxLifetime(d)
	}
}

// WithStmtCacheCapacity sets the prepared statement cache capacity.
func WithStmtCacheCapacity(capacity int) Option {
	return func(c *Conn) {
		c.stmtCache = cache.New(capacity)
	}
}

// WithLogger enables statement logging. Bind values for sensitive columns
// are masked, see WithSensitiveColumns.
func WithLogger(l logger.Logger) Option {
	return func(c *Conn) {
		c.logger = l
	}
}

// WithSensitiveColumns replaces the default list of columns whose bind
// values are masked in logs.
func WithSensitiveColumns(columns ...string) Option {
	return func(c *Conn) {
		c.sanitizer = logger.NewSanitizer(columns)
	}
}

// WithTracer enables tracing of every statement.
func WithTracer(t tracer.Tracer) Option {
	return func(c *Conn) {
		c.tracer = t
	}
}

// WithQueryHook registers a callback invoked after every statement.
func WithQueryHook(hook QueryHook) Option {
	return func(c *Conn) {
		c.queryHook = hook
	}
}

// WithClock sets the clock used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Conn) {
		c.clock = now
	}
}

// drivers maps accepted driver names to the registered database/sql driver.
var drivers = map[string]string{
	"mysql":      "mysql",
	"pgsql":      "postgres",
	"postgres":   "postgres",
	"postgresql": "postgres",
	"sqlite":     "sqlite",  // modernc.org/sqlite
	"sqlite3":    "sqlite3", // github.com/mattn/go-sqlite3, requires cgo
}

// Open creates a connection pool. It does not contact the database; use
// Connect or Ping for that.
func Open(driverName, dsn string, opts ...Option) (*Conn, error) {
	name, ok := drivers[driverName]
	if !ok {
		return nil, &Error{Op: "open", Err: fmt.Errorf("%w: %q", ErrUnsupportedDriver, driverName)}
	}
	dialect, ok := dialects.Lookup(name)
	if !ok {
		return nil, &Error{Op: "open", Err: fmt.Errorf("%w: %q", ErrUnsupportedDriver, driverName)}
	}

	db, err := sqlx.Open(name, dsn)
	if err != nil {
		return nil, &Error{Op: "open", Err: err}
	}

	c := &Conn{
		db:         db,
		driverName: name,
		dialect:    dialect,
		stmtCache:  cache.New(cache.DefaultCapacity),
		logger:     &logger.NoopLogger{},
		sanitizer:  logger.NewSanitizer(nil),
		tracer:     tracer.NoopTracer{},
		clock:      time.Now,
		lastID:     &lastInsert{},
		ctx:        context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.health != nil {
		c.health.start()
	}
	return c, nil
}

// Connect opens a pool for cfg and verifies it with a ping. A failure is
// returned as a connect *Error and is not retried.
func Connect(cfg Config, opts ...Option) (*Conn, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, &Error{Op: "connect", Err: err}
	}
	c, err := Open(cfg.Driver, dsn, opts...)
	if err != nil {
		return nil, err
	}
	if err := c.Ping(c.ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// Ping verifies the database is reachable.
func (c *Conn) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return &Error{Op: "connect", Err: err}
	}
	return nil
}

// Close releases all database resources. Closing a transaction-bound copy
// closes the shared pool as well.
func (c *Conn) Close() error {
	if c.health != nil {
		c.health.stop()
	}
	c.stmtCache.Clear()
	return c.db.Close()
}

// WithContext returns a copy of c whose builders and records default to ctx.
func (c *Conn) WithContext(ctx context.Context) *Conn {
	nc := *c
	nc.ctx = ctx
	return &nc
}

// Context returns the handle's default context.
func (c *Conn) Context() context.Context {
	return c.ctx
}

// Table returns a query builder for the named table.
func (c *Conn) Table(name string) *Builder {
	return newBuilder(c, name)
}

// Dialect returns the SQL dialect of the connection.
func (c *Conn) Dialect() dialects.Dialect {
	return c.dialect
}

// DriverName returns the database/sql driver name in use.
func (c *Conn) DriverName() string {
	return c.driverName
}

// DB returns the underlying sqlx handle.
func (c *Conn) DB() *sqlx.DB {
	return c.db
}

// CacheStats returns prepared statement cache statistics.
func (c *Conn) CacheStats() cache.Stats {
	return c.stmtCache.Stats()
}

// LastInsertID returns the primary key generated by the most recent insert
// issued through this handle, its context copies or its transactions.
func (c *Conn) LastInsertID() any {
	c.lastID.mu.Lock()
	defer c.lastID.mu.Unlock()
	return c.lastID.id
}

func (c *Conn) setLastInsertID(id any) {
	c.lastID.mu.Lock()
	c.lastID.id = id
	c.lastID.mu.Unlock()
}

func (c *Conn) now() time.Time {
	return c.clock()
}

// Begin starts a transaction and returns a handle bound to it.
func (c *Conn) Begin(ctx context.Context) (*Conn, error) {
	if c.tx != nil {
		return nil, ErrNestedTransaction
	}
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, &Error{Op: "begin", Err: err}
	}
	c.logger.Debug("transaction started", "database", c.driverName)

	txc := *c
	txc.tx = tx
	txc.txDone = new(atomic.Bool)
	txc.ctx = ctx
	return &txc, nil
}

// InTransaction reports whether c is bound to an open transaction.
func (c *Conn) InTransaction() bool {
	return c.tx != nil && !c.txDone.Load()
}

// Commit commits the transaction c is bound to.
func (c *Conn) Commit() error {
	return c.finish("commit", (*sqlx.Tx).Commit)
}

// Rollback rolls back the transaction c is bound to.
func (c *Conn) Rollback() error {
	return c.finish("rollback", (*sqlx.Tx).Rollback)
}

func (c *Conn) finish(op string, fn func(*sqlx.Tx) error) error {
	if c.tx == nil {
		return ErrNotInTransaction
	}
	if !c.txDone.CompareAndSwap(false, true) {
		return ErrTxDone
	}
	if err := fn(c.tx); err != nil {
		c.logger.Error("transaction "+op+" failed", "database", c.driverName, "error", err)
		return &Error{Op: op, Err: err}
	}
	c.logger.Debug("transaction "+op, "database", c.driverName)
	return nil
}

// Transactional runs fn inside a transaction. The transaction is committed
// when fn returns nil and rolled back when fn returns an error or panics.
// Called on a transaction-bound handle, fn joins the open transaction.
//
// Example:
//
//	err := conn.Transactional(ctx, func(tx *wee.Conn) error {
//	    user, err := wee.Create[User](tx, attrs)
//	    if err != nil {
//	        return err
//	    }
//	    _, err = wee.Create[Profile](tx, map[string]any{"user_id": user.Key()})
//	    return err
//	})
func (c *Conn) Transactional(ctx context.Context, fn func(tx *Conn) error) (err error) {
	if c.tx != nil {
		return fn(c.WithContext(ctx))
	}

	tx, err := c.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return tx.Commit()
}
