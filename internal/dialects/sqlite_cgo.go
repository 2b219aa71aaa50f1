//go:build cgo

package dialects

import (
	"errors"

	mattn "github.com/mattn/go-sqlite3"
)

// translateCgoSQLite maps constraint errors raised by the cgo sqlite3 driver.
func translateCgoSQLite(err error) error {
	var liteErr mattn.Error
	if !errors.As(err, &liteErr) {
		return err
	}
	switch liteErr.ExtendedCode {
	case mattn.ErrConstraintUnique, mattn.ErrConstraintPrimaryKey:
		return constraintError(ErrDuplicateKey, err)
	case mattn.ErrConstraintForeignKey:
		return constraintError(ErrForeignKeyViolation, err)
	}
	return err
}
