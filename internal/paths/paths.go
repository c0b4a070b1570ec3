// Package paths resolves where spsync keeps its configuration and its
// record stores.
//
// Each directory is resolved with the precedence flag, then environment,
// then configuration file, then platform default. On Linux the platform
// defaults follow the XDG base directory layout; elsewhere they live under
// os.UserConfigDir.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the spsync directories.
const AppName = "spsync"

// Environment variables consulted by the resolvers.
const (
	EnvConfigDir = "SPSYNC_CONFIG_DIR"
	EnvDataDir   = "SPSYNC_DATA_DIR"
)

// platform holds the lookups used for platform defaults so tests can
// replace them.
var platform = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// xdgDir returns $xdgVar/spsync, or ~/fallback/spsync when the variable is
// unset.
func xdgDir(xdgVar string, fallback ...string) (string, error) {
	if platform.goos != "linux" {
		dir, err := platform.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
	if xdg := os.Getenv(xdgVar); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := platform.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append(append([]string{home}, fallback...), AppName)...), nil
}

// DefaultConfigDir returns the platform configuration directory.
func DefaultConfigDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform data directory.
func DefaultDataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", ".local", "share")
}

// ResolveConfigDir returns the configuration directory: flag, then
// SPSYNC_CONFIG_DIR, then DefaultConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	return resolve(flag, os.Getenv(EnvConfigDir), "", DefaultConfigDir)
}

// ResolveDataDir returns the data directory: flag, then SPSYNC_DATA_DIR,
// then the data_dir value of config.yaml, then DefaultDataDir.
func ResolveDataDir(flag, configValue string) (string, error) {
	return resolve(flag, os.Getenv(EnvDataDir), configValue, DefaultDataDir)
}

func resolve(flag, env, configValue string, fallback func() (string, error)) (string, error) {
	for _, dir := range []string{flag, env, configValue} {
		if dir != "" {
			return filepath.Abs(dir)
		}
	}
	return fallback()
}
