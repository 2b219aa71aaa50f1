package dialects

import (
	"errors"
	"strconv"

	"github.com/lib/pq"
)

// SQLSTATE codes translated by TranslateError.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresDialect implements PostgreSQL-specific SQL dialect.
type PostgresDialect struct{}

func init() {
	RegisterDialect("postgres", &PostgresDialect{})
	RegisterDialect("postgresql", &PostgresDialect{})
	RegisterDialect("pgsql", &PostgresDialect{})
}

// Name returns "postgres".
func (d *PostgresDialect) Name() string { return "postgres" }

// QuoteIdentifier quotes a PostgreSQL identifier using double quotes.
func (d *PostgresDialect) QuoteIdentifier(s string) string {
	return pq.QuoteIdentifier(s)
}

// Placeholder returns PostgreSQL placeholder format ($1, $2, etc.).
func (d *PostgresDialect) Placeholder(index int) string {
	return "$" + strconv.Itoa(index)
}

// Returning appends a RETURNING clause, lib/pq does not support LastInsertId.
func (d *PostgresDialect) Returning(column string) string {
	return " RETURNING " + d.QuoteIdentifier(column)
}

// TranslateError maps PostgreSQL constraint errors.
func (d *PostgresDialect) TranslateError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pgUniqueViolation:
		return constraintError(ErrDuplicateKey, err)
	case pgForeignKeyViolation:
		return constraintError(ErrForeignKeyViolation, err)
	}
	return err
}
