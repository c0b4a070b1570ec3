package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/spsync/internal/records"
)

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [file]",
		Short: "Print the object tree of a record stream",
		Long: "Commit a JSONL record stream, or the configured record store when no file\n" +
			"is given, and print the resulting object tree.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				s   *session
				err error
			)
			if len(args) == 1 {
				s, err = a.commitFile(args[0], nil)
			} else {
				s, err = a.commitStore()
			}
			if err != nil {
				return err
			}

			snap, err := s.snapshot()
			if err != nil {
				return sysError(err)
			}
			if err := render(cmd.OutOrStdout(), a.settings.format, snap, func(w io.Writer) error {
				return writeTree(w, snap.Roots)
			}); err != nil {
				return sysError(err)
			}
			return nil
		},
	}
}

// commitStore loads the configured record store and commits its stream.
func (a *app) commitStore() (*session, error) {
	entries, err := a.loadStore()
	if err != nil {
		return nil, err
	}
	s, err := a.commitEntries(entries, nil)
	if err != nil {
		return nil, userError(err)
	}
	return s, nil
}

// loadStore returns the configured store's records, objects first.
func (a *app) loadStore() ([]records.Entry, error) {
	rs, err := a.openStore()
	if err != nil {
		return nil, err
	}
	defer rs.Detach()

	objects, properties, err := rs.Load()
	if err != nil {
		return nil, sysError(err)
	}
	entries := make([]records.Entry, 0, len(objects)+len(properties))
	for i := range objects {
		entries = append(entries, records.Entry{Object: &objects[i]})
	}
	for i := range properties {
		entries = append(entries, records.Entry{Property: &properties[i]})
	}
	return entries, nil
}
