package types

import "encoding/json"

// Hydrator turns a raw attribute bag into an instance of the concrete type
// bound to v. It is supplied by the persistence layer; the record factory
// only decides which variant to hydrate.
type Hydrator interface {
	Hydrate(v *Variant, raw *Bag) (any, error)
}

// HydratorFunc adapts a function to the Hydrator interface.
type HydratorFunc func(v *Variant, raw *Bag) (any, error)

// Hydrate calls f(v, raw).
func (f HydratorFunc) Hydrate(v *Variant, raw *Bag) (any, error) {
	return f(v, raw)
}

// Scalar is implemented by wrapped or enumerated discriminator values that
// carry a single underlying scalar.
type Scalar interface {
	ScalarValue() any
}

// Model is the generic record used for variants that have no registered
// concrete type. It keeps every hydrated attribute.
type Model struct {
	Variant    *Variant
	Attributes *Bag
}

// Get returns the attribute stored under key, or nil.
func (m *Model) Get(key string) any {
	v, _ := m.Attributes.Get(key)
	return v
}

// MarshalJSON encodes the model as its variant name, tag, and attributes.
func (m *Model) MarshalJSON() ([]byte, error) {
	out := struct {
		Variant    string `json:"variant"`
		Tag        string `json:"tag"`
		Attributes *Bag   `json:"attributes"`
	}{Attributes: m.Attributes}
	if m.Variant != nil {
		out.Variant = m.Variant.Name
		out.Tag = m.Variant.Tag
	}
	if out.Attributes == nil {
		out.Attributes = NewBag()
	}
	return json.Marshal(out)
}
