package hierarchy

import "github.com/mesh-intelligence/strata/pkg/types"

// WithDiscriminatorColumn runs body against a view of h whose discriminator
// column is name. The view shares h's variants and registry; h itself is
// never modified, so the override ends with body however body exits.
func (h *Hierarchy) WithDiscriminatorColumn(name string, body func(*Hierarchy) error) error {
	return body(h.scoped(func(c *types.RootConfig) {
		c.DiscriminatorColumn = name
	}))
}

// WithPersistedColumns runs body against a view of h in which columns
// replaces the declared columns of every variant. An empty columns set
// disables projection inside body.
func (h *Hierarchy) WithPersistedColumns(columns []string, body func(*Hierarchy) error) error {
	override := make([]string, len(columns))
	copy(override, columns)
	return body(h.scoped(func(c *types.RootConfig) {
		c.PersistedOverride = override
		c.HasPersistedOverride = true
	}))
}

func (h *Hierarchy) scoped(mutate func(*types.RootConfig)) *Hierarchy {
	view := *h
	view.config = h.config.Clone()
	mutate(&view.config)
	return &view
}
