package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/spsync/internal/persist"
)

// commitSummary is the commit command's report.
type commitSummary struct {
	Roots   int `json:"roots" toml:"roots"`
	Objects int `json:"objects" toml:"objects"`
	Applied int `json:"properties_applied" toml:"properties_applied"`
	Skipped int `json:"properties_skipped" toml:"properties_skipped"`
}

func newCommitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "commit <file>",
		Short: "Commit a JSONL record stream and report what was built",
		Long: "Commit every object and property record in a JSONL stream into a fresh\n" +
			"object graph. Exits non-zero when any record fails to commit.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.commitFile(args[0], nil)
			if s == nil {
				return err
			}
			sum := commitSummary{
				Roots:   len(s.roots),
				Objects: s.count(persist.ObjectCommitted),
				Applied: s.count(persist.PropertyApplied),
				Skipped: s.count(persist.PropertySkipped),
			}
			if rerr := render(cmd.OutOrStdout(), a.settings.format, sum, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "committed %d objects under %d roots (%d properties applied, %d skipped)\n",
					sum.Objects, sum.Roots, sum.Applied, sum.Skipped)
				return err
			}); rerr != nil {
				return sysError(rerr)
			}
			return err
		},
	}
}
