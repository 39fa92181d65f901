package types

import (
	"errors"
	"fmt"
	"strings"
)

// Hierarchy errors. Each is local to one operation and never affects the
// registry for later calls.
var (
	ErrMisconfigured      = errors.New("no discriminator column configured")
	ErrUnrecognizedType   = errors.New("unrecognized variant type")
	ErrInvalidAttributes  = errors.New("invalid attributes")
	ErrInvalidDeclaration = errors.New("invalid hierarchy declaration")
	ErrUnknownVariant     = errors.New("unknown variant")
	ErrForeignVariant     = errors.New("variant does not belong to this hierarchy")
)

// UnrecognizedTypeError reports a discriminator value that resolves to no
// variant in the registry.
type UnrecognizedTypeError struct {
	Tag string
}

func (e *UnrecognizedTypeError) Error() string {
	return fmt.Sprintf("unrecognized variant type %q", e.Tag)
}

// Is matches ErrUnrecognizedType.
func (e *UnrecognizedTypeError) Is(target error) bool {
	return target == ErrUnrecognizedType
}

// InvalidAttributesError lists the attributes strict projection rejected.
type InvalidAttributesError struct {
	Variant string
	Keys    []string
}

func (e *InvalidAttributesError) Error() string {
	return fmt.Sprintf("invalid attributes for %s: %s", e.Variant, strings.Join(e.Keys, ", "))
}

// Is matches ErrInvalidAttributes.
func (e *InvalidAttributesError) Is(target error) bool {
	return target == ErrInvalidAttributes
}
