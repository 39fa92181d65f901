package types

import "errors"

// Table provides uniform CRUD operations over polymorphic records.
// Get and Fetch return the hydrated concrete instance for each row; callers
// type-assert to the struct registered for the row's variant.
type Table interface {
	// Get retrieves the record with the given ID.
	// Returns ErrNotFound if no record exists with that ID.
	Get(id string) (any, error)

	// Set creates or updates a record. When id is empty a new UUID v7 is
	// generated. Returns the actual ID used (generated or provided).
	Set(id string, data any) (string, error)

	// Delete removes the record with the given ID.
	// Returns ErrNotFound if no record exists with that ID.
	Delete(id string) error

	// Fetch returns all records matching the filter. An empty filter
	// returns every record in the table.
	Fetch(filter Filter) ([]any, error)
}

// Filter selects records in Table.Fetch.
//
//	"variant" (string): variant name or tag; matches the variant and every
//	                    descendant reachable from it.
//	"limit"   (int):    maximum number of records.
type Filter map[string]any

// Filter keys understood by Table.Fetch.
const (
	FilterVariant = "variant"
	FilterLimit   = "limit"
)

// Table operation errors.
var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidID     = errors.New("invalid record ID")
	ErrInvalidData   = errors.New("invalid record data")
	ErrInvalidFilter = errors.New("invalid filter value type")
)
