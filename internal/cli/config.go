// Config loading and directory resolution for the strata CLI.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/strata/internal/declfile"
	"github.com/mesh-intelligence/strata/internal/paths"
	"github.com/mesh-intelligence/strata/pkg/hierarchy"
	"github.com/mesh-intelligence/strata/pkg/sqlite"
	"github.com/mesh-intelligence/strata/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend      = "backend"
	cfgKeyDataDir      = "data_dir"
	cfgKeyHierarchy    = "hierarchy"
	cfgKeySyncStrategy = "sync_strategy"

	defaultBackend = types.BackendSQLite
)

// configFile holds the structure written to config.yaml by init.
type configFile struct {
	Backend      string `yaml:"backend"`
	DataDir      string `yaml:"data_dir,omitempty"`
	Hierarchy    string `yaml:"hierarchy,omitempty"`
	SyncStrategy string `yaml:"sync_strategy,omitempty"`
}

// loadConfig reads config.yaml from configDir using Viper. A missing
// config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, defaultBackend)
	v.SetDefault(cfgKeySyncStrategy, types.SyncImmediate)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// env is the resolved environment shared by the commands.
type env struct {
	configDir     string
	dataDir       string
	hierarchyPath string
	config        types.Config
	logger        *slog.Logger
}

// loadEnv resolves directories and reads config.yaml.
func loadEnv(cmd *cobra.Command) (*env, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return nil, exitError(exitSysError, "resolve config dir: %s", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return nil, exitError(exitSysError, "%s", err)
	}

	dataDir, err := paths.ResolveDataDir(flags.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return nil, exitError(exitSysError, "resolve data dir: %s", err)
	}
	hierarchyPath, err := paths.ResolveHierarchyFile(flags.hierarchy, v.GetString(cfgKeyHierarchy), configDir)
	if err != nil {
		return nil, exitError(exitSysError, "resolve hierarchy file: %s", err)
	}

	e := &env{
		configDir:     configDir,
		dataDir:       dataDir,
		hierarchyPath: hierarchyPath,
		config: types.Config{
			Backend:      v.GetString(cfgKeyBackend),
			DataDir:      dataDir,
			SyncStrategy: v.GetString(cfgKeySyncStrategy),
		},
		logger: newLogger(cmd.ErrOrStderr()),
	}
	e.logger.Debug("environment resolved",
		"config_dir", configDir,
		"data_dir", dataDir,
		"hierarchy", hierarchyPath)
	return e, nil
}

// loadHierarchy reads and validates the hierarchy declaration.
func (e *env) loadHierarchy() (*hierarchy.Hierarchy, error) {
	if _, err := os.Stat(e.hierarchyPath); errors.Is(err, fs.ErrNotExist) {
		return nil, exitError(exitUserError, "hierarchy file %s not found (run strata init)", e.hierarchyPath)
	}
	decl, err := declfile.Load(e.hierarchyPath)
	if err != nil {
		return nil, exitError(exitUserError, "%s", err)
	}
	h, err := hierarchy.New(*decl, hierarchy.WithLogger(e.logger))
	if err != nil {
		return nil, exitError(exitUserError, "%s", err)
	}
	return h, nil
}

// openTable loads the hierarchy and attaches its store. The caller must
// call the returned detach function.
func (e *env) openTable() (*hierarchy.Hierarchy, types.Table, func(), error) {
	h, err := e.loadHierarchy()
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := sqlite.NewBackend(h, e.logger)
	if err != nil {
		return nil, nil, nil, exitError(exitUserError, "%s", err)
	}
	if err := store.Attach(e.config); err != nil {
		return nil, nil, nil, exitError(exitSysError, "attach store: %s", err)
	}
	table, err := store.Table()
	if err != nil {
		store.Detach()
		return nil, nil, nil, exitError(exitSysError, "open table: %s", err)
	}
	detach := func() {
		if err := store.Detach(); err != nil {
			e.logger.Error("detach failed", "err", err)
		}
	}
	return h, table, detach, nil
}
