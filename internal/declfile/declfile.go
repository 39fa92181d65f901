// Package declfile reads and writes hierarchy declaration files.
package declfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// FileName is the name of the declaration file.
const FileName = "hierarchy.yaml"

// FileNameAlt is the alternate name of the declaration file.
const FileNameAlt = "hierarchy.yml"

// ErrNoTypes is returned for a file that declares no types.
var ErrNoTypes = errors.New("declaration file declares no types")

// Load reads the declaration at path. Unknown keys are ignored.
func Load(path string) (*types.Declaration, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	var decl types.Declaration
	if err := k.Unmarshal("", &decl); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if len(decl.Types) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoTypes)
	}
	return &decl, nil
}

// Find returns the declaration file in dir, preferring FileName over
// FileNameAlt, or "" if there is none.
func Find(dir string) string {
	for _, name := range []string{FileName, FileNameAlt} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Save writes decl to path as YAML. The file is written to a temporary
// sibling and renamed into place.
func Save(path string, decl *types.Declaration) error {
	data, err := yamlv3.Marshal(decl)
	if err != nil {
		return fmt.Errorf("encode declaration: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

// Sample returns the declaration written by "strata init": a vehicle
// hierarchy with one intermediate level.
func Sample() *types.Declaration {
	strict := true
	return &types.Declaration{
		Root:          "Vehicle",
		Table:         "vehicles",
		Discriminator: "type",
		Types: []types.TypeDeclaration{
			{Name: "Vehicle", Columns: []string{"color", "owner_id"}, Children: []string{"MotorVehicle", "Bike"}},
			{Name: "MotorVehicle", Columns: []string{"fuel"}, Children: []string{"Car", "Truck", "Taxi"}},
			{Name: "Car", Columns: []string{"capacity"}},
			{Name: "Truck", Columns: []string{"payload"}},
			{Name: "Taxi", Columns: []string{"medallion"}},
			{Name: "Bike", Columns: []string{"gears"}, Strict: &strict},
		},
	}
}
