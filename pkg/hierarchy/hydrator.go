package hierarchy

import (
	"database/sql/driver"
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// ColumnTag is the struct tag naming the column a field maps to.
const ColumnTag = "db"

// StructHydrator is the registration-time table binding variants to Go
// struct types. Hydrate decodes a bag into a fresh struct; keys without a
// matching field are ignored, as a plain row scan would ignore them.
// Variants with no registered struct hydrate into *types.Model.
type StructHydrator struct {
	ctors  map[*types.Variant]func() any
	byType map[reflect.Type]*types.Variant
}

var _ types.Hydrator = (*StructHydrator)(nil)

func newStructHydrator() *StructHydrator {
	return &StructHydrator{
		ctors:  make(map[*types.Variant]func() any),
		byType: make(map[reflect.Type]*types.Variant),
	}
}

func (s *StructHydrator) register(v *types.Variant, ctor func() any) error {
	if ctor == nil {
		return fmt.Errorf("%w: nil constructor for %q", types.ErrInvalidDeclaration, v.Name)
	}
	sample := ctor()
	rt := reflect.TypeOf(sample)
	if rt == nil || rt.Kind() != reflect.Pointer || rt.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: constructor for %q must return a struct pointer, got %T",
			types.ErrInvalidDeclaration, v.Name, sample)
	}
	if prev, dup := s.byType[rt]; dup && prev != v {
		return fmt.Errorf("%w: %s is bound to both %q and %q",
			types.ErrInvalidDeclaration, rt, prev.Name, v.Name)
	}
	s.ctors[v] = ctor
	s.byType[rt] = v
	return nil
}

// Hydrate implements types.Hydrator.
func (s *StructHydrator) Hydrate(v *types.Variant, raw *types.Bag) (any, error) {
	ctor, ok := s.ctors[v]
	if !ok {
		return &types.Model{Variant: v, Attributes: raw.Clone()}, nil
	}

	out := ctor()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          ColumnTag,
		Squash:           true,
		WeaklyTypedInput: true,
		DecodeHook:       unwrapValues,
	})
	if err != nil {
		return nil, fmt.Errorf("hydrate %s: %w", v.Name, err)
	}
	if err := dec.Decode(raw.Map()); err != nil {
		return nil, fmt.Errorf("hydrate %s: %w", v.Name, err)
	}
	return out, nil
}

// Dehydrate returns the variant and attributes of a record produced by
// Hydrate. Struct fields become bag keys in sorted order.
func (s *StructHydrator) Dehydrate(rec any) (*types.Variant, *types.Bag, error) {
	if m, ok := rec.(*types.Model); ok {
		if m == nil || m.Variant == nil {
			return nil, nil, fmt.Errorf("dehydrate: %w: model without variant", types.ErrUnknownVariant)
		}
		return m.Variant, m.Attributes.Clone(), nil
	}

	v, ok := s.byType[reflect.TypeOf(rec)]
	if !ok {
		return nil, nil, fmt.Errorf("dehydrate: %w: no variant bound to %T", types.ErrUnknownVariant, rec)
	}

	fields := make(map[string]any)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &fields,
		TagName: ColumnTag,
		Squash:  true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("dehydrate %s: %w", v.Name, err)
	}
	if err := dec.Decode(rec); err != nil {
		return nil, nil, fmt.Errorf("dehydrate %s: %w", v.Name, err)
	}
	return v, types.BagFromMap(fields), nil
}

// unwrapValues reduces wrapped attribute values such as enum wrappers and
// SQL null types to the plain value a field can hold.
func unwrapValues(_ reflect.Type, to reflect.Type, data any) (any, error) {
unwrap:
	for i := 0; i < maxUnwrap; i++ {
		if isNilPointer(data) {
			data = nil
			break unwrap
		}
		switch x := data.(type) {
		case types.Scalar:
			data = x.ScalarValue()
		case driver.Valuer:
			inner, err := x.Value()
			if err != nil {
				return nil, err
			}
			data = inner
		case fmt.Stringer:
			if to.Kind() == reflect.String {
				return x.String(), nil
			}
			break unwrap
		default:
			break unwrap
		}
	}
	if data == nil {
		return reflect.Zero(to).Interface(), nil
	}
	return data, nil
}
