package hierarchy

import (
	"database/sql/driver"
	"fmt"
	"reflect"

	"github.com/spf13/cast"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// maxUnwrap bounds how many wrapper layers a discriminator value may have.
const maxUnwrap = 8

// Materialize hydrates raw into the concrete type selected by its
// discriminator value.
//
// When raw has no discriminator (absent key, nil value, or no discriminator
// column configured) hint itself is hydrated without consulting the
// registry. A tag that is not registered fails with
// *types.UnrecognizedTypeError. Materialize never filters raw; the hydrator
// decides what to do with keys outside the concrete type's schema.
func (h *Hierarchy) Materialize(hint *types.Variant, raw *types.Bag) (any, error) {
	if !h.owns(hint) {
		return nil, fmt.Errorf("materialize %v: %w", hint, types.ErrForeignVariant)
	}

	col := h.config.DiscriminatorColumn
	if col == "" {
		return h.hydrator.Hydrate(hint, raw)
	}

	value, _ := raw.Get(col)
	tag, present, err := DiscriminatorTag(value)
	if err != nil {
		h.logger.Debug("unreadable discriminator", "column", col, "value", value, "err", err)
		return nil, &types.UnrecognizedTypeError{Tag: fmt.Sprint(value)}
	}
	if !present {
		h.logger.Debug("no discriminator, deferring to hint", "hint", hint.Name)
		return h.hydrator.Hydrate(hint, raw)
	}

	v, ok := h.registry.Resolve(tag)
	if !ok {
		h.logger.Debug("unrecognized discriminator", "column", col, "tag", tag)
		return nil, &types.UnrecognizedTypeError{Tag: tag}
	}
	return h.hydrator.Hydrate(v, raw)
}

// DiscriminatorTag extracts the scalar tag carried by a discriminator value.
// Wrapped values are unwrapped through types.Scalar, driver.Valuer,
// fmt.Stringer, pointers, and string kinds; numbers, booleans, and byte
// slices are converted with cast. present is false for nil values.
func DiscriminatorTag(value any) (tag string, present bool, err error) {
	for i := 0; i < maxUnwrap; i++ {
		if isNilPointer(value) {
			return "", false, nil
		}
		switch x := value.(type) {
		case nil:
			return "", false, nil
		case string:
			return x, true, nil
		case types.Scalar:
			value = x.ScalarValue()
			continue
		case driver.Valuer:
			inner, err := x.Value()
			if err != nil {
				return "", false, fmt.Errorf("read discriminator value: %w", err)
			}
			value = inner
			continue
		case fmt.Stringer:
			return x.String(), true, nil
		}

		rv := reflect.ValueOf(value)
		switch rv.Kind() {
		case reflect.Pointer:
			value = rv.Elem().Interface()
			continue
		case reflect.String:
			return rv.String(), true, nil
		}

		s, err := cast.ToStringE(value)
		if err != nil {
			return "", false, fmt.Errorf("discriminator value %v: %w", value, err)
		}
		return s, true, nil
	}
	return "", false, fmt.Errorf("discriminator value nested more than %d levels", maxUnwrap)
}

// isNilPointer reports whether value is a typed nil pointer. Such values are
// absent, and calling their value-receiver methods would panic.
func isNilPointer(value any) bool {
	rv := reflect.ValueOf(value)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
