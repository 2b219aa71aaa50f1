package core

import (
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/jinzhu/inflection"

	"github.com/coregx/wee/internal/util"
)

// Schema is the per-type configuration of a record: where it lives and
// which attributes bulk assignment may write. Build it once with NewSchema
// and return it from the record's Schema method.
//
// Example:
//
//	var userSchema = wee.NewSchema("User",
//	    wee.Fillable("name", "email", "password"),
//	    wee.SoftDeletes(),
//	)
//
//	func (*User) Schema() *wee.Schema { return userSchema }
type Schema struct {
	Name            string // simple type name, used for default foreign keys
	Table           string
	PrimaryKey      string
	Fillable        []string
	Guarded         []string
	Timestamps      bool
	CreatedAtColumn string
	UpdatedAtColumn string
	SoftDeletes     bool
	DeletedAtColumn string
	// KeyGenerator, when set, supplies the primary key of new rows instead
	// of the database.
	KeyGenerator func() any

	guardedSet bool
}

// SchemaOption configures a Schema.
type SchemaOption func(*Schema)

// NewSchema builds the schema of the record type called name.
func NewSchema(name string, opts ...SchemaOption) *Schema {
	s := &Schema{
		Name:            name,
		Table:           DefaultTableName(name),
		PrimaryKey:      "id",
		Timestamps:      true,
		CreatedAtColumn: "created_at",
		UpdatedAtColumn: "updated_at",
		DeletedAtColumn: "deleted_at",
	}
	for _, opt := range opts {
		opt(s)
	}
	if !s.guardedSet {
		s.Guarded = []string{s.PrimaryKey}
	}
	return s
}

// DefaultTableName derives a table name from a type name: the plural of
// its snake_case form, so User becomes users and BlogPost blog_posts.
func DefaultTableName(name string) string {
	return inflection.Plural(util.SnakeCase(name))
}

// Table overrides the derived table name.
func Table(name string) SchemaOption {
	return func(s *Schema) { s.Table = name }
}

// PrimaryKey sets the primary key column. Defaults to "id".
func PrimaryKey(column string) SchemaOption {
	return func(s *Schema) { s.PrimaryKey = column }
}

// Fillable sets the allow-list for bulk assignment. When non-empty, only
// these keys are accepted.
func Fillable(columns ...string) SchemaOption {
	return func(s *Schema) { s.Fillable = columns }
}

// Guarded sets the deny-list, which wins over Fillable. It replaces the
// default, which guards the primary key.
func Guarded(columns ...string) SchemaOption {
	return func(s *Schema) {
		s.Guarded = columns
		s.guardedSet = true
	}
}

// WithoutTimestamps disables created_at and updated_at maintenance.
func WithoutTimestamps() SchemaOption {
	return func(s *Schema) { s.Timestamps = false }
}

// TimestampColumns renames the created and updated timestamp columns.
func TimestampColumns(created, updated string) SchemaOption {
	return func(s *Schema) {
		s.CreatedAtColumn = created
		s.UpdatedAtColumn = updated
	}
}

// SoftDeletes makes Delete stamp deleted_at instead of removing the row,
// and hides stamped rows from queries.
func SoftDeletes() SchemaOption {
	return func(s *Schema) { s.SoftDeletes = true }
}

// DeletedAtColumn renames the soft delete column.
func DeletedAtColumn(column string) SchemaOption {
	return func(s *Schema) { s.DeletedAtColumn = column }
}

// KeyGenerator sets the primary key generator for new rows.
func KeyGenerator(fn func() any) SchemaOption {
	return func(s *Schema) { s.KeyGenerator = fn }
}

// UUIDKeys generates random (version 4) UUID primary keys.
func UUIDKeys() any {
	return uuid.NewString()
}

// IsFillable reports whether bulk assignment may write key.
func (s *Schema) IsFillable(key string) bool {
	if slices.Contains(s.Guarded, key) {
		return false
	}
	if len(s.Fillable) > 0 {
		return slices.Contains(s.Fillable, key)
	}
	return true
}

func (s *Schema) foreignKey() string {
	return strings.ToLower(s.Name) + "_id"
}
