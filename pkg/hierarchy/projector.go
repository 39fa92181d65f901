package hierarchy

import (
	"fmt"
	"sort"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// PersistedColumns returns the sorted set of columns v may persist: every
// ancestor's own columns (or the scoped override), plus the primary key,
// timestamp, date, and discriminator columns.
//
// It returns nil when projection is disabled, that is when no discriminator
// column is configured or no columns are declared along v's ancestor chain.
func (h *Hierarchy) PersistedColumns(v *types.Variant) []string {
	set := h.persistedSet(v)
	if set == nil {
		return nil
	}
	cols := make([]string, 0, len(set))
	for c := range set {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

func (h *Hierarchy) persistedSet(v *types.Variant) map[string]bool {
	if !h.owns(v) || h.config.DiscriminatorColumn == "" {
		return nil
	}

	var declared []string
	if h.config.HasPersistedOverride {
		declared = h.config.PersistedOverride
	} else {
		for _, a := range v.Ancestors() {
			declared = append(declared, a.Columns...)
		}
	}
	if len(declared) == 0 {
		return nil
	}

	set := make(map[string]bool, len(declared)+6)
	for _, c := range declared {
		set[c] = true
	}
	if h.config.PrimaryKey != "" {
		set[h.config.PrimaryKey] = true
	}
	for _, c := range h.config.TimestampColumns {
		set[c] = true
	}
	for _, c := range h.config.DateColumns {
		set[c] = true
	}
	set[h.config.DiscriminatorColumn] = true
	return set
}

// IsStrict reports whether unknown attributes are rejected for v. The
// nearest ancestor with an explicit setting wins; otherwise the root flag
// applies.
func (h *Hierarchy) IsStrict(v *types.Variant) bool {
	for _, a := range v.Ancestors() {
		if a.Strict != nil {
			return *a.Strict
		}
	}
	return h.config.Strict
}

// Filter removes from bag every key v may not persist. It is a no-op when
// projection is disabled. Variants of another hierarchy fail with
// types.ErrForeignVariant. In strict mode it returns an
// *types.InvalidAttributesError naming the offending keys and leaves bag
// untouched.
func (h *Hierarchy) Filter(v *types.Variant, bag *types.Bag) error {
	if !h.owns(v) {
		return fmt.Errorf("filter %v: %w", v, types.ErrForeignVariant)
	}
	allowed := h.persistedSet(v)
	if allowed == nil {
		return nil
	}

	offending := outside(allowed, bag)
	if len(offending) == 0 {
		return nil
	}
	if h.IsStrict(v) {
		h.logger.Debug("rejected attributes", "variant", v.Name, "keys", offending)
		return &types.InvalidAttributesError{Variant: v.Name, Keys: offending}
	}
	for _, k := range offending {
		bag.Delete(k)
	}
	h.logger.Debug("dropped attributes", "variant", v.Name, "keys", offending)
	return nil
}

// SetFiltered merges the keys of incoming that v may persist into target.
// When projection is disabled every key is merged. In strict mode any
// unknown key fails the whole merge and target is left untouched. Variants
// of another hierarchy fail with types.ErrForeignVariant.
func (h *Hierarchy) SetFiltered(v *types.Variant, incoming, target *types.Bag) error {
	if !h.owns(v) {
		return fmt.Errorf("set filtered %v: %w", v, types.ErrForeignVariant)
	}
	allowed := h.persistedSet(v)
	if allowed == nil {
		for _, k := range incoming.Keys() {
			val, _ := incoming.Get(k)
			target.Set(k, val)
		}
		return nil
	}

	offending := outside(allowed, incoming)
	if len(offending) > 0 && h.IsStrict(v) {
		h.logger.Debug("rejected attributes", "variant", v.Name, "keys", offending)
		return &types.InvalidAttributesError{Variant: v.Name, Keys: offending}
	}
	for _, k := range incoming.Keys() {
		if !allowed[k] {
			continue
		}
		val, _ := incoming.Get(k)
		target.Set(k, val)
	}
	return nil
}

// QualifiedTypeColumn returns "table.discriminator".
func (h *Hierarchy) QualifiedTypeColumn(v *types.Variant, table string) (string, error) {
	if h.config.DiscriminatorColumn == "" {
		return "", fmt.Errorf("qualified type column for %s: %w", v.Name, types.ErrMisconfigured)
	}
	return table + "." + h.config.DiscriminatorColumn, nil
}

// WriteDiscriminator stores v's tag in target under the discriminator
// column.
func (h *Hierarchy) WriteDiscriminator(v *types.Variant, target *types.Bag) error {
	if h.config.DiscriminatorColumn == "" {
		return fmt.Errorf("write discriminator for %s: %w", v.Name, types.ErrMisconfigured)
	}
	target.Set(h.config.DiscriminatorColumn, v.Tag)
	return nil
}

// outside returns the keys of bag missing from allowed, in bag order.
func outside(allowed map[string]bool, bag *types.Bag) []string {
	var keys []string
	for _, k := range bag.Keys() {
		if !allowed[k] {
			keys = append(keys, k)
		}
	}
	return keys
}
