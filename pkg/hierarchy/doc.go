// Package hierarchy decodes single-table inheritance hierarchies.
//
// A Hierarchy is built once from a types.Declaration. It owns the type
// registry (tag to variant, built lazily on first use), projects attribute
// bags onto the columns a variant may persist, and materializes raw rows into
// the concrete type bound to their discriminator value.
//
// Example:
//
//	h, err := hierarchy.New(decl,
//	    hierarchy.WithType("Car", func() any { return &Car{} }),
//	    hierarchy.WithLogger(logger),
//	)
//	rec, err := h.Materialize(h.Root(), types.BagOf("type", "car", "fuel", "diesel"))
//	car := rec.(*Car)
package hierarchy
