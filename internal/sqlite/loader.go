// This file implements JSONL loading for startup.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// loadJSONL reads the table's JSONL file and inserts its records into
// SQLite. Loading is transactional: all records are inserted or the table
// stays empty. Malformed lines, records without a primary key, and records
// that violate constraints are skipped. Fields that are not columns of the
// table are ignored. Returns the number of records loaded.
func loadJSONL(db *sql.DB, l *layout, path string) (int, error) {
	records, err := readJSONL(path)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	loaded, err := insertRecords(tx, l, records)
	if err != nil {
		return 0, fmt.Errorf("loading %s into %s: %w", path, l.table, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing load transaction: %w", err)
	}
	return loaded, nil
}

// insertRecords inserts parsed JSONL records into the table. Only columns of
// the layout are extracted.
func insertRecords(tx *sql.Tx, l *layout, records []json.RawMessage) (int, error) {
	placeholders := make([]string, len(l.columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		l.table,
		l.selectList(),
		strings.Join(placeholders, ", "),
	)

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		return 0, fmt.Errorf("preparing insert for %s: %w", l.table, err)
	}
	defer stmt.Close()

	loaded := 0
	for _, rec := range records {
		bag := types.NewBag()
		if err := json.Unmarshal(rec, bag); err != nil {
			continue
		}
		if id, _ := bag.Get(l.primaryKey); id == nil || id == "" {
			continue
		}

		args := make([]any, len(l.columns))
		for i, col := range l.columns {
			val, _ := bag.Get(col)
			args[i] = sqlValue(val)
		}

		if _, err := stmt.Exec(args...); err != nil {
			continue
		}
		loaded++
	}
	return loaded, nil
}
