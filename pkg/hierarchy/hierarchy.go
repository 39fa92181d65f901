package hierarchy

import (
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// Hierarchy is an immutable single-table inheritance hierarchy. It is safe
// for concurrent use once New returns.
type Hierarchy struct {
	root     *types.Variant
	byName   map[string]*types.Variant
	order    []*types.Variant
	table    string
	config   types.RootConfig
	registry *Registry
	structs  *StructHydrator
	hydrator types.Hydrator
	logger   *slog.Logger
}

// Option configures a Hierarchy in New.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	hydrator types.Hydrator
	ctors    []typeCtor
}

type typeCtor struct {
	name string
	ctor func() any
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithHydrator replaces the default struct hydrator used by Materialize.
func WithHydrator(hydrator types.Hydrator) Option {
	return func(o *options) { o.hydrator = hydrator }
}

// WithType binds the variant named name to a constructor returning a
// pointer to a fresh struct. Variants without a constructor hydrate into
// *types.Model.
func WithType(name string, ctor func() any) Option {
	return func(o *options) { o.ctors = append(o.ctors, typeCtor{name: name, ctor: ctor}) }
}

// New validates decl and builds the hierarchy. The type registry is not
// built until first use.
func New(decl types.Declaration, opts ...Option) (*Hierarchy, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	b, err := buildVariants(decl)
	if err != nil {
		return nil, err
	}

	h := &Hierarchy{
		root:   b.root,
		byName: b.byName,
		order:  b.order,
		table:  decl.Table,
		config: decl.RootConfig(),
		logger: o.logger,
	}
	h.registry = NewRegistry(h.root, o.logger)

	h.structs = newStructHydrator()
	for _, tc := range o.ctors {
		v, ok := h.byName[tc.name]
		if !ok {
			return nil, fmt.Errorf("%w: constructor for undeclared type %q", types.ErrInvalidDeclaration, tc.name)
		}
		if err := h.structs.register(v, tc.ctor); err != nil {
			return nil, err
		}
	}
	h.hydrator = o.hydrator
	if h.hydrator == nil {
		h.hydrator = h.structs
	}

	h.logger.Debug("hierarchy declared",
		"root", h.root.Name,
		"table", h.table,
		"variants", len(h.order),
		"discriminator", h.config.DiscriminatorColumn)
	return h, nil
}

// Root returns the root variant.
func (h *Hierarchy) Root() *types.Variant {
	return h.root
}

// Table returns the physical table name shared by every variant.
func (h *Hierarchy) Table() string {
	return h.table
}

// Config returns a copy of the effective root configuration.
func (h *Hierarchy) Config() types.RootConfig {
	return h.config.Clone()
}

// Registry returns the lazily built type registry.
func (h *Hierarchy) Registry() *Registry {
	return h.registry
}

// Variants returns every declared variant, root first, parents before
// their subtypes.
func (h *Hierarchy) Variants() []*types.Variant {
	out := make([]*types.Variant, len(h.order))
	copy(out, h.order)
	return out
}

// Variant returns the variant declared under name.
func (h *Hierarchy) Variant(name string) (*types.Variant, error) {
	v, ok := h.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownVariant, name)
	}
	return v, nil
}

// MustVariant is like Variant but panics on unknown names.
func (h *Hierarchy) MustVariant(name string) *types.Variant {
	v, err := h.Variant(name)
	if err != nil {
		panic(err)
	}
	return v
}

// Lookup finds a variant by name, falling back to its tag. Unlike
// Registry.Resolve it also finds the root and undeclared subtypes.
func (h *Hierarchy) Lookup(nameOrTag string) (*types.Variant, error) {
	if v, ok := h.byName[nameOrTag]; ok {
		return v, nil
	}
	for _, v := range h.order {
		if v.Tag == nameOrTag {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", types.ErrUnknownVariant, nameOrTag)
}

// Dehydrate converts a record produced by this hierarchy back into its
// variant and attribute bag.
func (h *Hierarchy) Dehydrate(rec any) (*types.Variant, *types.Bag, error) {
	v, bag, err := h.structs.Dehydrate(rec)
	if err != nil {
		return nil, nil, err
	}
	if !h.owns(v) {
		return nil, nil, fmt.Errorf("dehydrate %s: %w", v.Name, types.ErrForeignVariant)
	}
	return v, bag, nil
}

// owns reports whether v was declared by this hierarchy.
func (h *Hierarchy) owns(v *types.Variant) bool {
	return v != nil && h.byName[v.Name] == v
}
