package types

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Variant is the static descriptor of one concrete type in a hierarchy.
// Variants are built once from a Declaration and are read-only afterwards.
type Variant struct {
	// Name is the type identifier used in declarations (e.g. "MotorVehicle").
	Name string

	// Tag is the discriminator value stored for rows of this variant.
	Tag string

	// Columns lists the columns introduced at this level. A nil slice means
	// the variant declares no columns at all.
	Columns []string

	// Children holds the declared subtypes in declaration order.
	Children []*Variant

	// Parent is the variant this one extends; nil for the root.
	Parent *Variant

	// Strict overrides the root strict flag for this variant and its
	// descendants when non-nil.
	Strict *bool
}

// Root returns the top of the Parent chain.
func (v *Variant) Root() *Variant {
	r := v
	for r.Parent != nil {
		r = r.Parent
	}
	return r
}

// IsRoot reports whether v has no parent.
func (v *Variant) IsRoot() bool {
	return v.Parent == nil
}

// IsLeaf reports whether v declares no children.
func (v *Variant) IsLeaf() bool {
	return len(v.Children) == 0
}

// IsA reports whether v is other or extends it, directly or transitively.
func (v *Variant) IsA(other *Variant) bool {
	if other == nil {
		return false
	}
	for p := v; p != nil; p = p.Parent {
		if p == other {
			return true
		}
	}
	return false
}

// Ancestors returns v followed by each parent up to the root.
func (v *Variant) Ancestors() []*Variant {
	var chain []*Variant
	for p := v; p != nil; p = p.Parent {
		chain = append(chain, p)
	}
	return chain
}

func (v *Variant) String() string {
	return v.Name
}

// NormalizeTag derives the default discriminator value from a type name:
// lower-cased, with every rune that is not a letter or digit removed.
// "MotorVehicle" becomes "motorvehicle"; "MP4 Video" becomes "mp4video".
func NormalizeTag(name string) string {
	// Casers carry state and must not be shared across goroutines.
	folded := cases.Lower(language.Und).String(name)
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, folded)
}
