package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeRecord prints one record in text mode: the variant on the first line,
// then one attribute per line in bag order.
func writeRecord(w io.Writer, v *types.Variant, bag *types.Bag) {
	fmt.Fprintf(w, "%s (%s)\n", v.Name, v.Tag)
	for _, k := range bag.Keys() {
		val, _ := bag.Get(k)
		fmt.Fprintf(w, "  %s: %v\n", k, val)
	}
}

// writeModels prints records in the selected output mode.
func writeModels(w io.Writer, models []*types.Model) error {
	if flags.jsonMode {
		if models == nil {
			models = []*types.Model{}
		}
		return writeJSON(w, models)
	}
	for _, m := range models {
		writeRecord(w, m.Variant, m.Attributes)
	}
	return nil
}

// asModel converts a record returned by the store. The CLI registers no Go
// types, so every record is a *types.Model.
func asModel(rec any) (*types.Model, error) {
	m, ok := rec.(*types.Model)
	if !ok {
		return nil, exitError(exitSysError, "unexpected record type %T", rec)
	}
	return m, nil
}

// parseBag decodes a JSON object argument.
func parseBag(arg string) (*types.Bag, error) {
	bag := types.NewBag()
	if err := json.Unmarshal([]byte(arg), bag); err != nil {
		return nil, exitError(exitUserError, "parse JSON: %s", err)
	}
	return bag, nil
}

// userErrors are the failures caused by input rather than the system.
var userErrors = []error{
	types.ErrNotFound,
	types.ErrInvalidID,
	types.ErrInvalidData,
	types.ErrInvalidFilter,
	types.ErrInvalidAttributes,
	types.ErrUnrecognizedType,
	types.ErrUnknownVariant,
	types.ErrMisconfigured,
}

// classify wraps err in a cliError with the matching exit code.
func classify(err error, action string) error {
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return exitError(exitUserError, "%s: %s", action, err)
		}
	}
	return exitError(exitSysError, "%s: %s", action, err)
}
