package wee

import "github.com/coregx/wee/internal/core"

// Generic functions cannot be aliased; these forward to internal/core.
// P is inferred, so callers write wee.Find[User](conn, 1) and get a *User.

// Relation types returned by HasOne, HasMany and BelongsTo.
type (
	HasOneRelation[T any, P interface {
		*T
		Record
	}] = core.HasOneRelation[T, P]
	HasManyRelation[T any, P interface {
		*T
		Record
	}] = core.HasManyRelation[T, P]
	BelongsToRelation[T any, P interface {
		*T
		Record
	}] = core.BelongsToRelation[T, P]
)

// New allocates a record bound to conn and fills it with attrs.
func New[T any, P interface {
	*T
	Record
}](conn *Conn, attrs map[string]any) P {
	return core.New[T, P](conn, attrs)
}

// Find returns the record with primary key id, or nil when there is none.
// Soft-deleted rows are not found.
func Find[T any, P interface {
	*T
	Record
}](conn *Conn, id any) (P, error) {
	return core.Find[T, P](conn, id)
}

// All returns every record of T's table, excluding soft-deleted rows.
func All[T any, P interface {
	*T
	Record
}](conn *Conn) ([]P, error) {
	return core.All[T, P](conn)
}

// Create builds a record from attrs, saves it and returns it.
func Create[T any, P interface {
	*T
	Record
}](conn *Conn, attrs map[string]any) (P, error) {
	return core.Create[T, P](conn, attrs)
}

// Query returns a builder over T's table with the soft delete filter applied.
func Query[T any, P interface {
	*T
	Record
}](conn *Conn) *Builder {
	return core.Query[T, P](conn)
}

// WithTrashed returns a builder over T's table including soft-deleted rows.
func WithTrashed[T any, P interface {
	*T
	Record
}](conn *Conn) *Builder {
	return core.WithTrashed[T, P](conn)
}

// Where returns Query[T] filtered by column = value.
func Where[T any, P interface {
	*T
	Record
}](conn *Conn, column string, value any) *Builder {
	return core.Where[T, P](conn, column, value)
}

// Get executes b and hydrates every row as a T.
func Get[T any, P interface {
	*T
	Record
}](b *Builder) ([]P, error) {
	return core.Get[T, P](b)
}

// First executes b with LIMIT 1 and hydrates the row as a T, or returns nil.
func First[T any, P interface {
	*T
	Record
}](b *Builder) (P, error) {
	return core.First[T, P](b)
}

// HasOne declares that parent has one T.
func HasOne[T any, P interface {
	*T
	Record
}](parent Record, opts ...RelationOption) *HasOneRelation[T, P] {
	return core.HasOne[T, P](parent, opts...)
}

// HasMany declares that parent has many T.
func HasMany[T any, P interface {
	*T
	Record
}](parent Record, opts ...RelationOption) *HasManyRelation[T, P] {
	return core.HasMany[T, P](parent, opts...)
}

// BelongsTo declares that child belongs to a T.
func BelongsTo[T any, P interface {
	*T
	Record
}](child Record, opts ...RelationOption) *BelongsToRelation[T, P] {
	return core.BelongsTo[T, P](child, opts...)
}
