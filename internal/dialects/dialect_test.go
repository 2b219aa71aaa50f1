package dialects

import (
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	for _, name := range []string{"mysql", "postgres", "postgresql", "pgsql", "sqlite", "sqlite3"} {
		d, ok := Lookup(name)
		require.True(t, ok, name)
		assert.NotEmpty(t, d.Name())
	}

	_, ok := Lookup("oracle")
	assert.False(t, ok)
	assert.Panics(t, func() { GetDialect("oracle") })
}

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		dialect  string
		in       string
		expected string
	}{
		{"mysql", "users", "`users`"},
		{"mysql", "we`ird", "`we``ird`"},
		{"postgres", "users", `"users"`},
		{"postgres", `we"ird`, `"we""ird"`},
		{"sqlite", "users", `"users"`},
		{"sqlite", `we"ird`, `"we""ird"`},
	}

	for _, tt := range tests {
		t.Run(tt.dialect+"/"+tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetDialect(tt.dialect).QuoteIdentifier(tt.in))
		})
	}
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "?", GetDialect("mysql").Placeholder(3))
	assert.Equal(t, "?", GetDialect("sqlite").Placeholder(3))
	assert.Equal(t, "$3", GetDialect("postgres").Placeholder(3))
}

func TestReturning(t *testing.T) {
	assert.Empty(t, GetDialect("mysql").Returning("id"))
	assert.Empty(t, GetDialect("sqlite").Returning("id"))
	assert.Equal(t, ` RETURNING "id"`, GetDialect("postgres").Returning("id"))
}

func TestTranslateError_MySQL(t *testing.T) {
	d := GetDialect("mysql")

	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a' for key 'email'"}
	err := d.TranslateError(dup)
	assert.ErrorIs(t, err, ErrDuplicateKey)
	var myErr *mysql.MySQLError
	require.ErrorAs(t, err, &myErr)
	assert.Equal(t, uint16(1062), myErr.Number)

	fk := &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"}
	assert.ErrorIs(t, d.TranslateError(fk), ErrForeignKeyViolation)

	other := &mysql.MySQLError{Number: 1064, Message: "syntax error"}
	assert.Same(t, other, d.TranslateError(other))
}

func TestTranslateError_Postgres(t *testing.T) {
	d := GetDialect("postgres")

	assert.ErrorIs(t, d.TranslateError(&pq.Error{Code: "23505"}), ErrDuplicateKey)
	assert.ErrorIs(t, d.TranslateError(&pq.Error{Code: "23503"}), ErrForeignKeyViolation)

	plain := errors.New("connection reset")
	assert.Equal(t, plain, d.TranslateError(plain))
}
