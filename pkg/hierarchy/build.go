package hierarchy

import (
	"fmt"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// built holds the validated variant tree produced from a declaration.
type built struct {
	root   *types.Variant
	byName map[string]*types.Variant
	order  []*types.Variant
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", types.ErrInvalidDeclaration, fmt.Sprintf(format, args...))
}

// buildVariants turns decl into linked variants. Declared children must
// extend their declaring type, no type may be declared by two parents, the
// extends relation must be acyclic, and tags must be unique.
func buildVariants(decl types.Declaration) (*built, error) {
	if decl.Root == "" {
		return nil, invalid("root type not named")
	}
	if len(decl.Types) == 0 {
		return nil, invalid("no types declared")
	}

	byName := make(map[string]*types.Variant, len(decl.Types))
	for _, td := range decl.Types {
		if td.Name == "" {
			return nil, invalid("type with empty name")
		}
		if _, dup := byName[td.Name]; dup {
			return nil, invalid("duplicate type %q", td.Name)
		}
		tag := td.Tag
		if tag == "" {
			tag = types.NormalizeTag(td.Name)
		}
		if tag == "" {
			return nil, invalid("type %q has an empty tag", td.Name)
		}
		byName[td.Name] = &types.Variant{
			Name:    td.Name,
			Tag:     tag,
			Columns: td.Columns,
			Strict:  td.Strict,
		}
	}

	// Declared children first: they fix both Parent and Children.
	declaredBy := make(map[string]string)
	for _, td := range decl.Types {
		parent := byName[td.Name]
		for _, childName := range td.Children {
			child, ok := byName[childName]
			if !ok {
				return nil, invalid("type %q declares unknown child %q", td.Name, childName)
			}
			if prev, shared := declaredBy[childName]; shared {
				return nil, invalid("type %q is declared as a child of both %q and %q", childName, prev, td.Name)
			}
			if ext := extendsOf(decl, childName); ext != "" && ext != td.Name {
				return nil, invalid("type %q is declared as a child of %q but extends %q", childName, td.Name, ext)
			}
			declaredBy[childName] = td.Name
			child.Parent = parent
			parent.Children = append(parent.Children, child)
		}
	}

	// Undeclared subtypes join the is-a relation only.
	for _, td := range decl.Types {
		if td.Extends == "" {
			continue
		}
		v := byName[td.Name]
		if v.Parent != nil {
			continue
		}
		parent, ok := byName[td.Extends]
		if !ok {
			return nil, invalid("type %q extends unknown type %q", td.Name, td.Extends)
		}
		v.Parent = parent
	}

	root, ok := byName[decl.Root]
	if !ok {
		return nil, invalid("root type %q is not declared", decl.Root)
	}
	if root.Parent != nil {
		return nil, invalid("root type %q extends %q", root.Name, root.Parent.Name)
	}
	for _, td := range decl.Types {
		v := byName[td.Name]
		if v != root && v.Parent == nil {
			return nil, invalid("type %q is not connected to root %q", v.Name, root.Name)
		}
		if !reachesRoot(v, root, len(decl.Types)) {
			return nil, invalid("type %q is part of an inheritance cycle", v.Name)
		}
	}

	tags := make(map[string]string, len(byName))
	for _, td := range decl.Types {
		v := byName[td.Name]
		if other, dup := tags[v.Tag]; dup {
			return nil, invalid("tag %q is used by both %q and %q", v.Tag, other, v.Name)
		}
		tags[v.Tag] = v.Name
	}

	return &built{
		root:   root,
		byName: byName,
		order:  declarationOrder(decl, root, byName),
	}, nil
}

func extendsOf(decl types.Declaration, name string) string {
	for _, td := range decl.Types {
		if td.Name == name {
			return td.Extends
		}
	}
	return ""
}

// reachesRoot walks at most limit parents from v looking for root.
func reachesRoot(v, root *types.Variant, limit int) bool {
	p := v
	for i := 0; i <= limit && p != nil; i++ {
		if p == root {
			return true
		}
		p = p.Parent
	}
	return false
}

// declarationOrder lists variants depth-first: each type's declared
// children in order, then its undeclared subtypes in declaration order.
func declarationOrder(decl types.Declaration, root *types.Variant, byName map[string]*types.Variant) []*types.Variant {
	undeclared := make(map[*types.Variant][]*types.Variant)
	for _, td := range decl.Types {
		v := byName[td.Name]
		if v.Parent == nil {
			continue
		}
		declared := false
		for _, c := range v.Parent.Children {
			if c == v {
				declared = true
				break
			}
		}
		if !declared {
			undeclared[v.Parent] = append(undeclared[v.Parent], v)
		}
	}

	order := make([]*types.Variant, 0, len(byName))
	var walk func(v *types.Variant)
	walk = func(v *types.Variant) {
		order = append(order, v)
		for _, c := range v.Children {
			walk(c)
		}
		for _, c := range undeclared[v] {
			walk(c)
		}
	}
	walk(root)
	return order
}
