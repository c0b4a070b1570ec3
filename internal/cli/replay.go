package cli

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/spsync/internal/records"
)

var errNotIdempotent = errors.New("replayed stream does not commit back to the same records")

func newReplayCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: "Commit a record stream and persist the object tree back to records",
		Long: "Commit a JSONL record stream, persist every root back to records in\n" +
			"canonical order, and check that committing the result persists the same\n" +
			"records again. Writes the stream to --out, or stdout.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var first records.Buffer
			s, err := a.commitFile(args[0], &first)
			if err != nil {
				return err
			}
			if err := s.persist(); err != nil {
				return sysError(fmt.Errorf("persist: %w", err))
			}

			var second records.Buffer
			again, err := a.commitEntries(first.Entries(), &second)
			if err != nil {
				return sysError(fmt.Errorf("commit replayed stream: %w", err))
			}
			if err := again.persist(); err != nil {
				return sysError(fmt.Errorf("persist replayed stream: %w", err))
			}
			if err := sameStream(first.Entries(), second.Entries()); err != nil {
				return sysError(err)
			}

			a.log.Info().Str("input", args[0]).Int("records", first.Len()).Msg("replay verified")
			if out == "" {
				if err := records.Encode(cmd.OutOrStdout(), first.Entries()); err != nil {
					return sysError(err)
				}
				return nil
			}
			if err := records.WriteFile(out, first.Entries()); err != nil {
				return sysError(err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d records to %s\n", first.Len(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the replayed stream to this file")
	return cmd
}

// sameStream reports errNotIdempotent unless a and b encode identically.
func sameStream(a, b []records.Entry) error {
	var ab, bb bytes.Buffer
	if err := records.Encode(&ab, a); err != nil {
		return err
	}
	if err := records.Encode(&bb, b); err != nil {
		return err
	}
	if !bytes.Equal(ab.Bytes(), bb.Bytes()) {
		return errNotIdempotent
	}
	return nil
}
