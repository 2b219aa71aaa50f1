package core

import (
	"errors"

	"github.com/coregx/wee/internal/dialects"
	"github.com/coregx/wee/internal/security"
)

// Predefined errors returned by wee operations.
var (
	// ErrNoConnection is returned when a record is used before it is bound to a connection.
	ErrNoConnection = errors.New("record is not attached to a connection")
	// ErrNotInTransaction is returned by Commit and Rollback on a handle that is not transaction-bound.
	ErrNotInTransaction = errors.New("not in a transaction")
	// ErrNestedTransaction is returned by Begin on a transaction-bound handle.
	ErrNestedTransaction = errors.New("transaction already in progress")
	// ErrTxDone is returned when operating on an already committed or rolled back transaction.
	ErrTxDone = errors.New("transaction has already been committed or rolled back")
	// ErrRecordRemoved is returned when saving a record whose row was deleted.
	ErrRecordRemoved = errors.New("record has been removed")
	// ErrHookAborted wraps the error a lifecycle hook returned.
	ErrHookAborted = errors.New("aborted by lifecycle hook")
	// ErrUnsupportedDriver is returned by Open for an unknown driver name.
	ErrUnsupportedDriver = errors.New("unsupported database driver")
	// ErrEmptyData is returned by Insert and Update when there is nothing to write.
	ErrEmptyData = errors.New("no data to write")
	// ErrInvalidLimit is returned for a negative LIMIT or OFFSET.
	ErrInvalidLimit = errors.New("limit and offset must not be negative")

	ErrInvalidIdentifier = security.ErrInvalidIdentifier
	ErrInvalidOperator   = security.ErrInvalidOperator
	ErrInvalidDirection  = security.ErrInvalidDirection
	ErrUnsafeExpression  = security.ErrUnsafeExpression

	ErrDuplicateKey        = dialects.ErrDuplicateKey
	ErrForeignKeyViolation = dialects.ErrForeignKeyViolation
)

// Error is a data-access failure: a statement that could not be prepared or
// executed, or a connection that could not be established. Err carries the
// driver error, translated by the dialect so that errors.Is works with
// ErrDuplicateKey and ErrForeignKeyViolation.
type Error struct {
	Op  string // connect, exec, query, begin, commit, rollback
	SQL string
	Err error
}

func (e *Error) Error() string {
	if e.SQL == "" {
		return "wee: " + e.Op + ": " + e.Err.Error()
	}
	return "wee: " + e.Op + " [" + e.SQL + "]: " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with additional context message.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg: message,
		err: err,
	}
}

type wrappedError struct {
	msg string
	err error
}

func (e *wrappedError) Error() string {
	return e.msg + ": " + e.err.Error()
}

func (e *wrappedError) Unwrap() error {
	return e.err
}
