package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	Backend   string `yaml:"backend"`
	Store     string `yaml:"store,omitempty"`
	DataDir   string `yaml:"data_dir,omitempty"`
	Format    string `yaml:"format,omitempty"`
	BatchSize int    `yaml:"batch_size,omitempty"`
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize spsync configuration and storage",
		Long:  "Create the configuration and data directories, write config.yaml if missing,\nthen initialize the record store.",
		Args:  cobra.NoArgs,
		RunE:  a.runInit,
	}
}

func (a *app) runInit(cmd *cobra.Command, _ []string) error {
	if err := os.MkdirAll(a.configDir, 0o755); err != nil {
		return sysError(fmt.Errorf("create config directory: %w", err))
	}

	configPath := filepath.Join(a.configDir, configFileExt)
	written, err := writeConfigIfMissing(configPath, configFile{
		Backend:   a.settings.backend,
		Store:     a.settings.store,
		DataDir:   a.dataDir,
		BatchSize: a.settings.batchSize,
	})
	if err != nil {
		return sysError(fmt.Errorf("write config: %w", err))
	}
	if written {
		a.log.Info().Str("path", configPath).Msg("wrote default configuration")
	}

	rs, err := a.openStore()
	if err != nil {
		return err
	}
	if err := rs.Detach(); err != nil {
		return sysError(fmt.Errorf("finalize storage: %w", err))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "spsync initialized (%s store in %s)\n", a.settings.backend, a.dataDir)
	return nil
}

// writeConfigIfMissing creates config.yaml holding cfg if the file does not
// exist. It reports whether it wrote the file.
func writeConfigIfMissing(path string, cfg configFile) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
