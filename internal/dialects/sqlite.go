package dialects

import (
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteDialect implements SQLite-specific SQL dialect. It serves both the
// pure Go driver ("sqlite") and the cgo driver ("sqlite3").
type SQLiteDialect struct{}

func init() {
	RegisterDialect("sqlite", &SQLiteDialect{})
	RegisterDialect("sqlite3", &SQLiteDialect{})
}

// Name returns "sqlite".
func (d *SQLiteDialect) Name() string { return "sqlite" }

// QuoteIdentifier quotes a SQLite identifier using double quotes.
func (d *SQLiteDialect) QuoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Placeholder returns SQLite placeholder format (always "?").
func (d *SQLiteDialect) Placeholder(_ int) string {
	return "?"
}

// Returning returns "": both drivers report the rowid via LastInsertId.
func (d *SQLiteDialect) Returning(_ string) string {
	return ""
}

// TranslateError maps SQLite constraint errors from either driver.
func (d *SQLiteDialect) TranslateError(err error) error {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return constraintError(ErrDuplicateKey, err)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return constraintError(ErrForeignKeyViolation, err)
		}
		// Connections without extended result codes only report the primary code.
		if liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
			switch msg := liteErr.Error(); {
			case strings.Contains(msg, "UNIQUE"):
				return constraintError(ErrDuplicateKey, err)
			case strings.Contains(msg, "FOREIGN KEY"):
				return constraintError(ErrForeignKeyViolation, err)
			}
		}
		return err
	}
	return translateCgoSQLite(err)
}
