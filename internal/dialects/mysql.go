package dialects

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// MySQL server error numbers translated by TranslateError.
const (
	mysqlErrDupEntry         = 1062
	mysqlErrRowIsReferenced  = 1451
	mysqlErrNoReferencedRow  = 1452
	mysqlErrRowIsReferenced2 = 1217
	mysqlErrNoReferencedRow2 = 1216
)

// MySQLDialect implements MySQL-specific SQL dialect.
type MySQLDialect struct{}

// Name returns "mysql".
func (d *MySQLDialect) Name() string { return "mysql" }

// QuoteIdentifier quotes a MySQL identifier using backticks.
func (d *MySQLDialect) QuoteIdentifier(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

// Placeholder returns MySQL placeholder format (always "?").
func (d *MySQLDialect) Placeholder(_ int) string {
	return "?"
}

// Returning returns "": MySQL reports generated keys via LastInsertId.
func (d *MySQLDialect) Returning(_ string) string {
	return ""
}

// TranslateError maps MySQL constraint errors.
func (d *MySQLDialect) TranslateError(err error) error {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return err
	}
	switch myErr.Number {
	case mysqlErrDupEntry:
		return constraintError(ErrDuplicateKey, err)
	case mysqlErrRowIsReferenced, mysqlErrNoReferencedRow,
		mysqlErrRowIsReferenced2, mysqlErrNoReferencedRow2:
		return constraintError(ErrForeignKeyViolation, err)
	}
	return err
}

func init() {
	RegisterDialect("mysql", &MySQLDialect{})
}
