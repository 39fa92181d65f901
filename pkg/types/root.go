package types

// Default root configuration values.
const (
	DefaultPrimaryKey = "id"
	CreatedAtColumn   = "created_at"
	UpdatedAtColumn   = "updated_at"
)

// DefaultTimestampColumns are persisted when a declaration enables
// timestamps without naming its own columns.
var DefaultTimestampColumns = []string{CreatedAtColumn, UpdatedAtColumn}

// RootConfig is the configuration declared on a hierarchy root and inherited
// read-only by every descendant.
type RootConfig struct {
	// DiscriminatorColumn names the column holding the variant tag. Empty
	// disables both projection and discrimination.
	DiscriminatorColumn string

	// PrimaryKey is always part of the persisted column set.
	PrimaryKey string

	// TimestampColumns are bookkeeping columns maintained by the store.
	TimestampColumns []string

	// DateColumns are extra date columns that are always persisted.
	DateColumns []string

	// Strict rejects unknown attributes instead of dropping them.
	Strict bool

	// PersistedOverride replaces the union of declared columns for every
	// variant while HasPersistedOverride is set. Only scoped views set it.
	PersistedOverride    []string
	HasPersistedOverride bool
}

// Clone returns a deep copy of c.
func (c RootConfig) Clone() RootConfig {
	out := c
	out.TimestampColumns = cloneStrings(c.TimestampColumns)
	out.DateColumns = cloneStrings(c.DateColumns)
	out.PersistedOverride = cloneStrings(c.PersistedOverride)
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
