package cli

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/spsync/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envPrefix      = "SPSYNC"

	cfgKeyBackend   = "backend"
	cfgKeyStore     = "store"
	cfgKeyDataDir   = "data_dir"
	cfgKeyFormat    = "format"
	cfgKeyBatchSize = "batch_size"

	defaultBackend = types.BackendSQLite
)

// settings holds the values read from config.yaml and the environment.
type settings struct {
	backend   string
	store     string
	dataDir   string
	format    string
	batchSize int
}

// loadConfig reads config.yaml from configDir using Viper. Every key can be
// overridden by an SPSYNC_ prefixed environment variable. A missing
// config.yaml is not an error.
func loadConfig(configDir string) (settings, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, defaultBackend)
	v.SetDefault(cfgKeyFormat, formatText)
	v.SetDefault(cfgKeyBatchSize, 0)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	return settings{
		backend:   v.GetString(cfgKeyBackend),
		store:     v.GetString(cfgKeyStore),
		dataDir:   v.GetString(cfgKeyDataDir),
		format:    v.GetString(cfgKeyFormat),
		batchSize: v.GetInt(cfgKeyBatchSize),
	}, nil
}
