// Package dialects provides database-specific SQL dialect implementations for
// PostgreSQL, MySQL, and SQLite, handling identifier quoting, placeholders,
// generated-key retrieval and translation of driver errors.
package dialects

import (
	"errors"
	"fmt"
	"sync"
)

// Constraint violations reported by any supported driver are translated to
// these errors. The driver error stays reachable through errors.As.
var (
	// ErrDuplicateKey is returned when a unique or primary key constraint fails.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrForeignKeyViolation is returned when a foreign key constraint fails.
	ErrForeignKeyViolation = errors.New("foreign key violation")
)

// Dialect defines database-specific behaviors.
type Dialect interface {
	// Name returns the canonical dialect name (mysql, postgres, sqlite).
	Name() string
	// QuoteIdentifier quotes a single identifier part.
	QuoteIdentifier(string) string
	// Placeholder returns the bind marker for the 1-based parameter index.
	Placeholder(int) string
	// Returning returns the suffix that makes an INSERT yield the generated
	// key, or "" when the driver reports it through LastInsertId.
	Returning(column string) string
	// TranslateError maps driver errors onto ErrDuplicateKey and
	// ErrForeignKeyViolation. Unknown errors are returned unchanged.
	TranslateError(error) error
}

var (
	mu       sync.RWMutex
	dialects = make(map[string]Dialect)
)

// RegisterDialect registers a database dialect by driver name.
func RegisterDialect(name string, d Dialect) {
	mu.Lock()
	defer mu.Unlock()
	dialects[name] = d
}

// Lookup retrieves a registered dialect by driver name.
func Lookup(name string) (Dialect, bool) {
	mu.RLock()
	defer mu.RUnlock()
	d, ok := dialects[name]
	return d, ok
}

// GetDialect retrieves a registered dialect by driver name, panics if not found.
func GetDialect(name string) Dialect {
	if d, ok := Lookup(name); ok {
		return d
	}
	panic("unsupported dialect: " + name)
}

// constraintError joins a translated sentinel with the original driver error.
func constraintError(kind, err error) error {
	return fmt.Errorf("%w: %w", kind, err)
}
