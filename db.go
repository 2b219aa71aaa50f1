// Package wee is an active record ORM and fluent query builder for
// PostgreSQL, MySQL and SQLite.
//
// A Conn executes statements and hands out builders:
//
//	conn, err := wee.Open("sqlite", "app.db")
//	rows, err := conn.Table("users").Where("active", true).OrderBy("name").Get()
//
// Records embed Model and declare a Schema:
//
//	type User struct{ wee.Model }
//
//	var userSchema = wee.NewSchema("User", wee.Fillable("name", "email"))
//
//	func (*User) Schema() *wee.Schema { return userSchema }
//
//	user, err := wee.Create[User](conn, map[string]any{"name": "Ada"})
//	found, err := wee.Find[User](conn, user.Key())
package wee

import (
	"github.com/coregx/wee/internal/cache"
	"github.com/coregx/wee/internal/core"
	"github.com/coregx/wee/internal/dialects"
	"github.com/coregx/wee/internal/logger"
	"github.com/coregx/wee/internal/tracer"
)

type (
	// Conn is a database handle, optionally bound to a transaction.
	Conn = core.Conn
	// Option is a functional option for configuring Conn.
	Option = core.Option
	// Config describes a database connection.
	Config = core.Config
	// Builder assembles and executes one SQL statement against a table.
	Builder = core.Builder
	// Row is one result row keyed by column name.
	Row = core.Row
	// Error is a data-access failure carrying the driver error.
	Error = core.Error
	// QueryEvent describes an executed statement.
	QueryEvent = core.QueryEvent
	// QueryHook is invoked after every statement.
	QueryHook = core.QueryHook
	// CacheStats holds prepared statement cache statistics.
	CacheStats = cache.Stats
	// Dialect abstracts database-specific SQL.
	Dialect = dialects.Dialect
	// Health is the outcome of the latest background ping.
	Health = core.Health

	// Logger is the logging interface wee writes to.
	Logger = logger.Logger
	// Tracer starts spans around statements.
	Tracer = tracer.Tracer

	// Record is implemented by types that embed Model and declare a Schema.
	Record = core.Record
	// Model is the active record base type.
	Model = core.Model
	// Schema is the per-type record configuration.
	Schema = core.Schema
	// SchemaOption configures a Schema.
	SchemaOption = core.SchemaOption
	// State is a record lifecycle state.
	State = core.State
	// Relation resolves associated records.
	Relation = core.Relation
	// Relater is implemented by records that declare relations.
	Relater = core.Relater
	// RelationOption overrides a derived relation key.
	RelationOption = core.RelationOption

	SavingHook   = core.SavingHook
	SavedHook    = core.SavedHook
	CreatingHook = core.CreatingHook
	CreatedHook  = core.CreatedHook
	UpdatingHook = core.UpdatingHook
	UpdatedHook  = core.UpdatedHook
	DeletingHook = core.DeletingHook
	DeletedHook  = core.DeletedHook
)

// Record states.
const (
	StateUnsaved     = core.StateUnsaved
	StatePersisted   = core.StatePersisted
	StateSoftDeleted = core.StateSoftDeleted
	StateRemoved     = core.StateRemoved
)

// Re-export core functions.
var (
	Open          = core.Open
	Connect       = core.Connect
	LoadConfig    = core.LoadConfig
	ConfigFromEnv = core.ConfigFromEnv
	DefaultConfig = core.DefaultConfig
	Attach        = core.Attach
	WrapError     = core.WrapError

	WithMaxOpenConns      = core.WithMaxOpenConns
	WithMaxIdleConns      = core.WithMaxIdleConns
	WithConnMaxLifetime   = core.WithConnMaxLifetime
	WithStmtCacheCapacity = core.WithStmtCacheCapacity
	WithLogger            = core.WithLogger
	WithSensitiveColumns  = core.WithSensitiveColumns
	WithTracer            = core.WithTracer
	WithQueryHook         = core.WithQueryHook
	WithClock             = core.WithClock
	WithHealthCheck       = core.WithHealthCheck

	// Schema construction
	NewSchema         = core.NewSchema
	DefaultTableName  = core.DefaultTableName
	Table             = core.Table
	PrimaryKey        = core.PrimaryKey
	Fillable          = core.Fillable
	Guarded           = core.Guarded
	WithoutTimestamps = core.WithoutTimestamps
	TimestampColumns  = core.TimestampColumns
	SoftDeletes       = core.SoftDeletes
	DeletedAtColumn   = core.DeletedAtColumn
	KeyGenerator      = core.KeyGenerator
	UUIDKeys          = core.UUIDKeys

	// Relation keys
	ForeignKey = core.ForeignKey
	LocalKey   = core.LocalKey
	OwnerKey   = core.OwnerKey

	// Logging and tracing backends
	NewSlogAdapter    = logger.NewSlogAdapter
	NewZapAdapter     = logger.NewZapAdapter
	NewZerologAdapter = logger.NewZerologAdapter
	NewLogrusAdapter  = logger.NewLogrusAdapter
	NewOtelTracer     = tracer.NewOtelTracer
)

// Errors.
var (
	ErrNoConnection        = core.ErrNoConnection
	ErrNotInTransaction    = core.ErrNotInTransaction
	ErrNestedTransaction   = core.ErrNestedTransaction
	ErrTxDone              = core.ErrTxDone
	ErrRecordRemoved       = core.ErrRecordRemoved
	ErrHookAborted         = core.ErrHookAborted
	ErrUnsupportedDriver   = core.ErrUnsupportedDriver
	ErrEmptyData           = core.ErrEmptyData
	ErrInvalidLimit        = core.ErrInvalidLimit
	ErrInvalidIdentifier   = core.ErrInvalidIdentifier
	ErrInvalidOperator     = core.ErrInvalidOperator
	ErrInvalidDirection    = core.ErrInvalidDirection
	ErrUnsafeExpression    = core.ErrUnsafeExpression
	ErrDuplicateKey        = core.ErrDuplicateKey
	ErrForeignKeyViolation = core.ErrForeignKeyViolation
)
