package types

import "errors"

// Store gives backend-agnostic access to the single table that holds every
// variant of one hierarchy. Callers attach to a backend, use the table, and
// detach when done.
type Store interface {
	// Table returns the record table. Returns ErrStoreDetached when the
	// store is not attached.
	Table() (Table, error)

	// Attach connects the store to the backend described by config.
	// Creates the DataDir if it does not exist. Returns ErrAlreadyAttached
	// if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, table operations return ErrStoreDetached.
	Detach() error
}

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)
