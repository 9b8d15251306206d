package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/portfolio/internal/site"
)

func newFactCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fact",
		Short: "Print a random New Jersey fact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := site.RandomFact(nil)
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), f.Person)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n  %s\n", f.Person.Name, f.Person.Description)
			return nil
		},
	}
}
