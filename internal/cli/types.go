package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/spsync/internal/sqlobject"
)

func newTypesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List registered object types and their persistable properties",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := sqlobject.Registry()
			names := reg.TypeNames()
			props := make(map[string][]string, len(names))
			for _, name := range names {
				h, err := reg.Helper(name)
				if err != nil {
					return sysError(err)
				}
				props[name] = h.PropertyNames()
			}

			return render(cmd.OutOrStdout(), a.settings.format, props, func(w io.Writer) error {
				for _, name := range names {
					if _, err := fmt.Fprintf(w, "%s: %s\n", name, strings.Join(props[name], ", ")); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}
