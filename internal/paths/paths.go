// Package paths resolves configuration and data directory locations and the
// hierarchy declaration file.
package paths

import (
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/strata/internal/declfile"
)

// CWD-relative directory names.
const (
	DefaultConfigDirName = ".strata"
	DefaultDataDirName   = ".strata-db"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "STRATA_CONFIG_DIR"
	EnvDataDir   = "STRATA_DATA_DIR"
	EnvHierarchy = "STRATA_HIERARCHY"
)

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > STRATA_CONFIG_DIR env > $(CWD)/.strata.
func ResolveConfigDir(flag string) (string, error) {
	for _, p := range []string{flag, os.Getenv(EnvConfigDir)} {
		if p != "" {
			return filepath.Abs(p)
		}
	}
	return fromCWD(DefaultConfigDirName)
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > configYAMLValue > STRATA_DATA_DIR env > $(CWD)/.strata-db.
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	for _, p := range []string{flag, configYAMLValue, os.Getenv(EnvDataDir)} {
		if p != "" {
			return filepath.Abs(p)
		}
	}
	return fromCWD(DefaultDataDirName)
}

// ResolveHierarchyFile returns the hierarchy declaration file following the
// precedence chain: flag > configYAMLValue > STRATA_HIERARCHY env > the
// declaration file found in configDir. When configDir holds neither
// hierarchy.yaml nor hierarchy.yml, configDir/hierarchy.yaml is returned.
func ResolveHierarchyFile(flag, configYAMLValue, configDir string) (string, error) {
	for _, p := range []string{flag, configYAMLValue, os.Getenv(EnvHierarchy)} {
		if p != "" {
			return filepath.Abs(p)
		}
	}
	if found := declfile.Find(configDir); found != "" {
		return found, nil
	}
	return filepath.Join(configDir, declfile.FileName), nil
}

func fromCWD(name string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, name), nil
}
