package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/spsync/internal/records"
)

func newImportCmd(a *app) *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Validate a JSONL record stream and append it to the record store",
		Long: "Commit a JSONL record stream to check it, then append its records to the\n" +
			"configured record store in stream order. Nothing is written when the\n" +
			"stream fails to commit.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := records.ReadFile(args[0])
			if err != nil {
				return userError(err)
			}
			if _, err := a.commitEntries(entries, nil); err != nil {
				return userError(fmt.Errorf("commit %s: %w", args[0], err))
			}

			rs, err := a.openStore()
			if err != nil {
				return err
			}
			defer rs.Detach()

			if reset {
				if err := rs.Reset(); err != nil {
					return sysError(fmt.Errorf("reset store: %w", err))
				}
			}
			if err := records.Emit(rs, entries); err != nil {
				return sysError(fmt.Errorf("emit records: %w", err))
			}
			if err := rs.Detach(); err != nil {
				return sysError(fmt.Errorf("finalize storage: %w", err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d records\n", len(entries))
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "drop the store's records before importing")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the record store as a JSONL stream",
		Long:  "Write every record in the configured record store to a JSONL file, or\nstdout when no file is given. Object records come first.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := a.loadStore()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				if err := records.Encode(cmd.OutOrStdout(), entries); err != nil {
					return sysError(err)
				}
				return nil
			}
			if err := records.WriteFile(args[0], entries); err != nil {
				return sysError(err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d records to %s\n", len(entries), args[0])
			return nil
		},
	}
}
