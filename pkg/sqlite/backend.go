// Package sqlite provides the public API for the SQLite store backend.
// This package exposes the factory function for creating SQLite backends
// while keeping implementation details internal.
package sqlite

import (
	"log/slog"

	"github.com/mesh-intelligence/strata/internal/sqlite"
	"github.com/mesh-intelligence/strata/pkg/hierarchy"
	"github.com/mesh-intelligence/strata/pkg/types"
)

// NewBackend creates a new SQLite backend storing every variant of h in
// one table. The backend is not attached; call Attach with a Config to
// initialize. A nil logger discards output.
//
// Example:
//
//	store, err := sqlite.NewBackend(h, nil)
//	if err != nil {
//	    return err
//	}
//	err = store.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".strata-db",
//	})
//	defer store.Detach()
func NewBackend(h *hierarchy.Hierarchy, logger *slog.Logger) (types.Store, error) {
	b, err := sqlite.NewBackend(h, logger)
	if err != nil {
		return nil, err
	}
	return b, nil
}
