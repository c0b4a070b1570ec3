// Package cli implements the spsync command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/spsync/internal/logging"
	"github.com/mesh-intelligence/spsync/internal/paths"
	"github.com/mesh-intelligence/spsync/pkg/store"
	"github.com/mesh-intelligence/spsync/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values for one command tree.
type rootFlags struct {
	configDir string
	dataDir   string
	format    string
}

// app is the state shared by the subcommands of one command tree. It is
// filled in by the root's PersistentPreRunE.
type app struct {
	flags     rootFlags
	configDir string
	dataDir   string
	settings  settings
	log       zerolog.Logger
}

// NewRootCmd creates the top-level "spsync" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{log: zerolog.Nop()}
	root := &cobra.Command{
		Use:   "spsync",
		Short: "Commit and replay object-graph record streams",
		Long: "spsync rebuilds database object trees from flat record streams,\n" +
			"replays them back to records, and moves streams in and out of a record store.",
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/spsync)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $XDG_DATA_HOME/spsync)")
	root.PersistentFlags().StringVar(&a.flags.format, "format", "", "output format: text, json or toml (default from config, then text)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newTypesCmd(a))
	root.AddCommand(newCommitCmd(a))
	root.AddCommand(newReplayCmd(a))
	root.AddCommand(newShowCmd(a))
	root.AddCommand(newImportCmd(a))
	root.AddCommand(newExportCmd(a))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		os.Exit(exitCode(err))
	}
}

// setup resolves directories, loads config.yaml and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	log, err := logging.Configure(logging.ProfileRuntime, cmd.ErrOrStderr())
	if err != nil {
		return userError(err)
	}
	a.log = log

	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	a.configDir = configDir

	s, err := loadConfig(configDir)
	if err != nil {
		return userError(err)
	}
	if a.flags.format != "" {
		s.format = a.flags.format
	}
	if !validFormat(s.format) {
		return userError(fmt.Errorf("unknown format %q (want text, json or toml)", s.format))
	}
	a.settings = s

	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, s.dataDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve data dir: %w", err))
	}
	a.dataDir = dataDir

	a.log.Debug().Str("config_dir", configDir).Str("data_dir", dataDir).
		Str("backend", s.backend).Msg("configuration loaded")
	return nil
}

// storeConfig returns the record store configuration.
func (a *app) storeConfig() types.Config {
	return types.Config{
		Backend:   a.settings.backend,
		DataDir:   a.dataDir,
		Name:      a.settings.store,
		BatchSize: a.settings.batchSize,
	}
}

// openStore attaches the configured record store. The caller must Detach it.
func (a *app) openStore() (types.RecordStore, error) {
	rs, err := store.Open(a.storeConfig(), store.WithLogger(a.log))
	if err != nil {
		return nil, sysError(err)
	}
	return rs, nil
}

// exitError carries the process exit code for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error { return &exitError{code: exitUserError, err: err} }
func sysError(err error) error  { return &exitError{code: exitSysError, err: err} }

// exitCode maps err to a process exit code. Errors without a code, such as
// flag parse errors, are user errors.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}
