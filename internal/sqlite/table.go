package sqlite

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// table implements types.Table over the single table shared by every
// variant of the backend's hierarchy.
type table struct {
	backend *Backend
}

var _ types.Table = (*table)(nil)

// Get retrieves a record by ID and materializes it as its concrete variant.
// Returns ErrInvalidID if id is empty, ErrNotFound if not found.
func (t *table) Get(id string) (any, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	b := t.backend
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	bags, err := b.queryBags(
		"SELECT "+b.layout.selectList()+" FROM "+b.layout.table+" WHERE "+b.layout.primaryKey+" = ?",
		[]any{id})
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", id, err)
	}
	if len(bags) == 0 {
		return nil, types.ErrNotFound
	}
	return b.h.Materialize(b.h.Root(), bags[0])
}

// Set creates or updates a record. data must be a struct registered with
// the hierarchy or a *types.Model. Attributes outside the variant's
// persisted columns are dropped, or rejected in strict mode. If id is empty
// the record's own primary key is used, and failing that a UUID v7 is
// generated. Returns the record ID.
func (t *table) Set(id string, data any) (string, error) {
	b := t.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return "", types.ErrStoreDetached
	}

	h, l := b.h, b.layout
	v, bag, err := h.Dehydrate(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	if resolved, ok := h.Registry().Resolve(v.Tag); !ok || resolved != v {
		return "", fmt.Errorf("set %s: %w", v.Name, &types.UnrecognizedTypeError{Tag: v.Tag})
	}
	if err := h.Filter(v, bag); err != nil {
		return "", err
	}
	if err := h.WriteDiscriminator(v, bag); err != nil {
		return "", err
	}

	if id == "" {
		if own, ok := bag.Get(l.primaryKey); ok {
			id, _ = own.(string)
		}
	}
	if id == "" {
		id = generateUUID()
	}
	bag.Set(l.primaryKey, id)

	now := time.Now().UTC().Format(time.RFC3339)
	for _, c := range l.touched {
		bag.Set(c, now)
	}

	allowed := make(map[string]bool)
	for _, c := range h.PersistedColumns(v) {
		allowed[c] = true
	}

	var cols, placeholders, sets []string
	var args []any
	for _, c := range l.columns {
		if bag.Has(c) {
			val, _ := bag.Get(c)
			cols = append(cols, c)
			placeholders = append(placeholders, "?")
			args = append(args, sqlValue(val))
		}
		if c == l.primaryKey || c == l.created {
			continue
		}
		switch {
		case bag.Has(c):
			sets = append(sets, c+" = excluded."+c)
		case !allowed[c]:
			// Columns of other variants are cleared when a record changes variant.
			sets = append(sets, c+" = NULL")
		}
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(%s) DO UPDATE SET %s",
		l.table,
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
		l.primaryKey,
		strings.Join(sets, ", "))
	if _, err := b.db.Exec(query, args...); err != nil {
		return "", fmt.Errorf("upserting %s: %w", v.Name, err)
	}

	if err := b.written(); err != nil {
		return "", err
	}
	b.logger.Debug("record set", "id", id, "variant", v.Name)
	return id, nil
}

// Delete removes a record by ID.
// Returns ErrInvalidID if id is empty, ErrNotFound if not found.
func (t *table) Delete(id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	b := t.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}

	res, err := b.db.Exec("DELETE FROM "+b.layout.table+" WHERE "+b.layout.primaryKey+" = ?", id)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting %s: %w", id, err)
	}
	if n == 0 {
		return types.ErrNotFound
	}

	if err := b.written(); err != nil {
		return err
	}
	b.logger.Debug("record deleted", "id", id)
	return nil
}

// Fetch returns records matching the filter, ordered by ID. The "variant"
// key selects a variant by name or tag together with every variant
// reachable below it. Empty filter matches all.
func (t *table) Fetch(filter types.Filter) ([]any, error) {
	b := t.backend
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	h, l := b.h, b.layout
	hint := h.Root()
	query := "SELECT " + l.selectList() + " FROM " + l.table
	var args []any

	if raw, ok := filter[types.FilterVariant]; ok {
		name, ok := raw.(string)
		if !ok {
			return nil, types.ErrInvalidFilter
		}
		v, err := h.Lookup(name)
		if err != nil {
			return nil, err
		}
		tags := h.Registry().ReachableTags(v)
		if len(tags) == 0 {
			return []any{}, nil
		}
		col, err := h.QualifiedTypeColumn(v, l.table)
		if err != nil {
			return nil, err
		}
		placeholders := make([]string, len(tags))
		for i, tag := range tags {
			placeholders[i] = "?"
			args = append(args, tag)
		}
		query += " WHERE " + col + " IN (" + strings.Join(placeholders, ", ") + ")"
		hint = v
	}
	query += " ORDER BY " + l.primaryKey

	if limit, ok := filter[types.FilterLimit]; ok {
		n, ok := toInt(limit)
		if !ok {
			return nil, types.ErrInvalidFilter
		}
		if n > 0 {
			query += fmt.Sprintf(" LIMIT %d", n)
		}
	}

	bags, err := b.queryBags(query, args)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", l.table, err)
	}

	results := make([]any, 0, len(bags))
	for _, bag := range bags {
		rec, err := h.Materialize(hint, bag)
		if err != nil {
			id, _ := bag.Get(l.primaryKey)
			return nil, fmt.Errorf("fetching %v: %w", id, err)
		}
		results = append(results, rec)
	}
	return results, nil
}

// queryBags runs a SELECT over the layout's columns and returns one bag per
// row. NULL columns are left out of the bag.
func (b *Backend) queryBags(query string, args []any) ([]*types.Bag, error) {
	rows, err := b.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := b.layout.columns
	var bags []*types.Bag
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		bag := types.NewBag()
		for i, c := range cols {
			switch x := vals[i].(type) {
			case nil:
				continue
			case []byte:
				bag.Set(c, string(x))
			default:
				bag.Set(c, x)
			}
		}
		bags = append(bags, bag)
	}
	return bags, rows.Err()
}

// sqlValue converts an attribute value into a value SQLite can store.
// Nested objects and arrays are stored as JSON text.
func sqlValue(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case map[string]any, []any, *types.Bag:
		data, err := json.Marshal(x)
		if err != nil {
			return nil
		}
		return string(data)
	default:
		return v
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	default:
		return 0, false
	}
}
