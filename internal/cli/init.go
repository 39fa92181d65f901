package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/strata/internal/declfile"
	"github.com/mesh-intelligence/strata/pkg/types"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize strata configuration and storage",
		Long: "Create the configuration and data directories, write config.yaml and a sample\n" +
			"hierarchy.yaml if they are missing, then initialize the storage backend.",
		Args: cobra.NoArgs,
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(e.configDir, 0o755); err != nil {
		return exitError(exitSysError, "create config directory: %s", err)
	}

	configPath := filepath.Join(e.configDir, configFileExt)
	if err := writeConfigIfMissing(configPath, e.config, e.hierarchyPath); err != nil {
		return exitError(exitSysError, "write config: %s", err)
	}

	if _, err := os.Stat(e.hierarchyPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(e.hierarchyPath), 0o755); err != nil {
			return exitError(exitSysError, "create hierarchy directory: %s", err)
		}
		if err := declfile.Save(e.hierarchyPath, declfile.Sample()); err != nil {
			return exitError(exitSysError, "write hierarchy: %s", err)
		}
		e.logger.Info("wrote sample hierarchy", "path", e.hierarchyPath)
	}

	_, _, detach, err := e.openTable()
	if err != nil {
		return err
	}
	detach()

	fmt.Fprintln(cmd.OutOrStdout(), "Strata initialized successfully")
	return nil
}

// writeConfigIfMissing creates config.yaml from cfg if the file does not
// exist. If it already exists, the function returns nil (idempotent).
func writeConfigIfMissing(path string, cfg types.Config, hierarchyPath string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	file := configFile{
		Backend:      cfg.Backend,
		DataDir:      cfg.DataDir,
		Hierarchy:    hierarchyPath,
		SyncStrategy: cfg.SyncStrategy,
	}
	data, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
