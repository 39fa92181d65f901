package sqlite

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/mesh-intelligence/strata/pkg/hierarchy"
	"github.com/mesh-intelligence/strata/pkg/types"
)

// identPattern restricts table and column names to bare SQL identifiers so
// they can be spliced into statements unquoted.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// layout is the physical shape of the shared table.
type layout struct {
	table         string
	primaryKey    string
	discriminator string
	// created is the timestamp column preserved across updates; empty when
	// timestamps are disabled.
	created string
	// touched are the timestamp columns refreshed on every write.
	touched []string
	// columns lists the primary key followed by every other column any
	// variant may persist, sorted.
	columns []string
}

// newLayout derives the table layout from h: the union of every variant's
// persisted columns.
func newLayout(h *hierarchy.Hierarchy) (*layout, error) {
	cfg := h.Config()
	if cfg.DiscriminatorColumn == "" {
		return nil, fmt.Errorf("table %s: %w", h.Table(), types.ErrMisconfigured)
	}
	if h.PersistedColumns(h.Root()) == nil {
		return nil, fmt.Errorf("table %s declares no columns: %w", h.Table(), types.ErrMisconfigured)
	}

	union := make(map[string]bool)
	for _, v := range h.Variants() {
		for _, c := range h.PersistedColumns(v) {
			union[c] = true
		}
	}
	delete(union, cfg.PrimaryKey)

	l := &layout{
		table:         h.Table(),
		primaryKey:    cfg.PrimaryKey,
		discriminator: cfg.DiscriminatorColumn,
		columns:       []string{cfg.PrimaryKey},
	}
	rest := make([]string, 0, len(union))
	for c := range union {
		rest = append(rest, c)
	}
	sort.Strings(rest)
	l.columns = append(l.columns, rest...)

	if ts := cfg.TimestampColumns; len(ts) > 0 {
		l.created = ts[0]
		l.touched = ts
	}

	for _, name := range append([]string{l.table}, l.columns...) {
		if !identPattern.MatchString(name) {
			return nil, fmt.Errorf("invalid identifier %q: %w", name, types.ErrInvalidDeclaration)
		}
	}
	return l, nil
}

// createTableDDL returns the CREATE TABLE statement. Columns other than the
// primary key carry no declared type, so SQLite stores values as given.
func (l *layout) createTableDDL() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n    %s TEXT PRIMARY KEY", l.table, l.primaryKey)
	for _, c := range l.columns[1:] {
		if c == l.discriminator {
			fmt.Fprintf(&b, ",\n    %s TEXT NOT NULL", c)
			continue
		}
		fmt.Fprintf(&b, ",\n    %s", c)
	}
	b.WriteString("\n);")
	return b.String()
}

// indexDDL returns the index on the discriminator column.
func (l *layout) indexDDL() string {
	return fmt.Sprintf("CREATE INDEX idx_%s_%s ON %s(%s);", l.table, l.discriminator, l.table, l.discriminator)
}

// selectList returns the comma separated column list for SELECT.
func (l *layout) selectList() string {
	return strings.Join(l.columns, ", ")
}
