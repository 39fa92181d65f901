// Package sqlite implements the SQLite storage backend for one hierarchy.
// Every variant shares a single table; a JSONL file in DataDir is the source
// of truth and SQLite is rebuilt from it on Attach.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/strata/pkg/hierarchy"
	"github.com/mesh-intelligence/strata/pkg/types"
)

// Backend implements types.Store using SQLite as the query engine and a
// JSONL file as the source of truth.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	table    *table

	h      *hierarchy.Hierarchy
	layout *layout
	logger *slog.Logger

	// dirty is set when JSONL writes are deferred by SyncOnClose.
	dirty bool
}

var _ types.Store = (*Backend)(nil)

// NewBackend creates a backend storing the records of h. The backend is not
// attached; call Attach with a Config to initialize. A nil logger discards
// output.
func NewBackend(h *hierarchy.Hierarchy, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	l, err := newLayout(h)
	if err != nil {
		return nil, err
	}
	return &Backend{
		h:      h,
		layout: l,
		logger: logger.With("table", l.table),
	}, nil
}

// Table returns the record table.
// Returns ErrStoreDetached if the backend is not attached.
func (b *Backend) Table() (types.Table, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	return b.table, nil
}

// Attach initializes the backend with the given configuration.
// Creates DataDir if it does not exist, builds a fresh SQLite database from
// the hierarchy, and loads the JSONL file into it.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return err
	}
	config.DataDir = dataDir

	// The JSONL file is authoritative; start from an empty database.
	dbPath := filepath.Join(dataDir, b.layout.table+".db")
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}

	for _, stmt := range []string{b.layout.createTableDDL(), b.layout.indexDDL()} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("create schema: %w", err)
		}
	}

	path := jsonlPath(dataDir, b.layout.table)
	if err := initJSONLFile(path); err != nil {
		db.Close()
		return err
	}
	loaded, err := loadJSONL(db, b.layout, path)
	if err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	b.db = db
	b.config = config
	b.dirty = false
	b.table = &table{backend: b}
	b.attached = true

	b.logger.Info("attached", "data_dir", dataDir, "records", loaded, "sync", b.syncStrategy())
	return nil
}

// Detach releases all resources held by the backend. Deferred JSONL writes
// are flushed first. After Detach, all operations return ErrStoreDetached.
// Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	if b.dirty {
		if err := b.persistLocked(); err != nil {
			return fmt.Errorf("flush pending writes: %w", err)
		}
		b.dirty = false
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}

	b.attached = false
	b.table = nil
	b.logger.Info("detached")
	return nil
}

// Hierarchy returns the hierarchy whose records the backend stores.
func (b *Backend) Hierarchy() *hierarchy.Hierarchy {
	return b.h
}

func (b *Backend) syncStrategy() string {
	if b.config.SyncStrategy == "" {
		return types.SyncImmediate
	}
	return b.config.SyncStrategy
}

// written records a committed change, rewriting the JSONL file now or at
// Detach depending on the sync strategy. The caller must hold b.mu.
func (b *Backend) written() error {
	if b.syncStrategy() == types.SyncOnClose {
		b.dirty = true
		return nil
	}
	return b.persistLocked()
}

// persistLocked rewrites the JSONL file from SQLite. The caller must hold
// b.mu.
func (b *Backend) persistLocked() error {
	bags, err := b.queryBags("SELECT "+b.layout.selectList()+" FROM "+b.layout.table+
		" ORDER BY "+b.layout.primaryKey, nil)
	if err != nil {
		return fmt.Errorf("reading %s for JSONL: %w", b.layout.table, err)
	}

	records := make([]json.RawMessage, 0, len(bags))
	for _, bag := range bags {
		rec, err := bag.MarshalJSON()
		if err != nil {
			return err
		}
		records = append(records, rec)
	}
	return writeJSONL(jsonlPath(b.config.DataDir, b.layout.table), records)
}

// generateUUID generates a new UUID v7 for record IDs.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}
