// Package core provides the core of wee: connections, the query builder,
// records with their lifecycle and relations.
package core

import (
	"context"
	"fmt"
	"time"
)

// QueryEvent contains information about an executed statement.
// This is passed to QueryHook callbacks for logging, metrics, or tracing.
type QueryEvent struct {
	// SQL is the executed statement
	SQL string
	// Args are the bind values, unmasked
	Args []any
	// Table is the builder's table, empty for raw statements
	Table string
	// Duration is how long the statement took to execute
	Duration time.Duration
	// RowsAffected is the affected count for writes and the row count for reads
	RowsAffected int64
	// Error is any error that occurred during execution (nil on success)
	Error error
	// Operation is the SQL operation type (SELECT, INSERT, UPDATE, DELETE, UNKNOWN)
	Operation string
}

// QueryHook is a callback function invoked after each statement execution.
//
// Example:
//
//	conn, _ := wee.Open("sqlite", "app.db",
//	    wee.WithQueryHook(func(ctx context.Context, e wee.QueryEvent) {
//	        metrics.Observe(e.Operation, e.Duration)
//	    }))
type QueryHook func(ctx context.Context, event QueryEvent)

// Lifecycle hooks. A record opts into a hook by implementing the method;
// a non-nil error aborts the operation and is returned wrapped in
// ErrHookAborted. Hooks run in this order on save:
//
//	OnSaving, then OnCreating/insert/OnCreated or OnUpdating/update/OnUpdated, then OnSaved
//
// and around delete: OnDeleting, delete, OnDeleted. ForceDelete runs no hooks.
type (
	SavingHook   interface{ OnSaving() error }
	SavedHook    interface{ OnSaved() error }
	CreatingHook interface{ OnCreating() error }
	CreatedHook  interface{ OnCreated() error }
	UpdatingHook interface{ OnUpdating() error }
	UpdatedHook  interface{ OnUpdated() error }
	DeletingHook interface{ OnDeleting() error }
	DeletedHook  interface{ OnDeleted() error }
)

type lifecycleEvent string

const (
	eventSaving   lifecycleEvent = "saving"
	eventSaved    lifecycleEvent = "saved"
	eventCreating lifecycleEvent = "creating"
	eventCreated  lifecycleEvent = "created"
	eventUpdating lifecycleEvent = "updating"
	eventUpdated  lifecycleEvent = "updated"
	eventDeleting lifecycleEvent = "deleting"
	eventDeleted  lifecycleEvent = "deleted"
)

// fire dispatches event to rec if it implements the matching hook.
func fire(rec Record, event lifecycleEvent) error {
	var err error
	switch event {
	case eventSaving:
		if h, ok := rec.(SavingHook); ok {
			err = h.OnSaving()
		}
	case eventSaved:
		if h, ok := rec.(SavedHook); ok {
			err = h.OnSaved()
		}
	case eventCreating:
		if h, ok := rec.(CreatingHook); ok {
			err = h.OnCreating()
		}
	case eventCreated:
		if h, ok := rec.(CreatedHook); ok {
			err = h.OnCreated()
		}
	case eventUpdating:
		if h, ok := rec.(UpdatingHook); ok {
			err = h.OnUpdating()
		}
	case eventUpdated:
		if h, ok := rec.(UpdatedHook); ok {
			err = h.OnUpdated()
		}
	case eventDeleting:
		if h, ok := rec.(DeletingHook); ok {
			err = h.OnDeleting()
		}
	case eventDeleted:
		if h, ok := rec.(DeletedHook); ok {
			err = h.OnDeleted()
		}
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrHookAborted, event, err)
	}
	return nil
}
