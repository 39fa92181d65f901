package hierarchy

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// Registry maps discriminator tags to variants for one hierarchy root.
//
// The map is the depth-first flattening of the declared children tree: each
// child's tag, then the flattened closure of that child's own children. The
// root is left out unless it has no children. The map is built on first use
// under a single-writer lock and published atomically; readers observe either
// no map (and build it) or the complete one.
type Registry struct {
	root   *types.Variant
	logger *slog.Logger

	mu    sync.Mutex
	built atomic.Pointer[typeMap]
}

// typeMap is the immutable, fully built registry contents.
type typeMap struct {
	tags  []string
	byTag map[string]*types.Variant
}

// NewRegistry returns an unbuilt registry for the hierarchy rooted at root.
// A nil logger discards output.
func NewRegistry(root *types.Variant, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{root: root, logger: logger}
}

// Resolve returns the variant registered under tag.
func (r *Registry) Resolve(tag string) (*types.Variant, bool) {
	v, ok := r.load().byTag[tag]
	return v, ok
}

// Tags returns every registered tag in depth-first declaration order.
func (r *Registry) Tags() []string {
	m := r.load()
	out := make([]string, len(m.tags))
	copy(out, m.tags)
	return out
}

// ReachableTags returns, in registry order, the tags whose variant is from
// or a descendant of from in the is-a relation. The root's own tag is never
// included when the root has children, because it is not registered.
func (r *Registry) ReachableTags(from *types.Variant) []string {
	m := r.load()
	var out []string
	for _, tag := range m.tags {
		if m.byTag[tag].IsA(from) {
			out = append(out, tag)
		}
	}
	return out
}

// Built reports whether the map has been published.
func (r *Registry) Built() bool {
	return r.built.Load() != nil
}

func (r *Registry) load() *typeMap {
	if m := r.built.Load(); m != nil {
		return m
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if m := r.built.Load(); m != nil {
		return m
	}

	m := flatten(r.root)
	r.built.Store(m)
	r.logger.Debug("type registry built", "root", r.root.Name, "tags", m.tags)
	return m
}

func flatten(root *types.Variant) *typeMap {
	m := &typeMap{byTag: make(map[string]*types.Variant)}
	add := func(v *types.Variant) {
		if _, dup := m.byTag[v.Tag]; dup {
			return
		}
		m.tags = append(m.tags, v.Tag)
		m.byTag[v.Tag] = v
	}

	if root.IsLeaf() {
		add(root)
		return m
	}

	var walk func(v *types.Variant)
	walk = func(v *types.Variant) {
		for _, c := range v.Children {
			add(c)
			walk(c)
		}
	}
	walk(root)
	return m
}
