package cli

import (
	"github.com/spf13/cobra"
)

func newDeleteCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a comment",
		Long:  "Delete a comment by id, then show the refreshed list. You may delete your own comments; site owners may delete any.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd, args[0], limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", defaultLimit, "maximum number of comments to show afterwards")

	return cmd
}

func runDelete(cmd *cobra.Command, id string, limit int) error {
	ctrl, err := refreshed(cmd.Context(), newAPIClient(), limit)
	if err != nil {
		return err
	}

	if err := ctrl.Delete(cmd.Context(), id); err != nil {
		return err
	}
	return printView(cmd.OutOrStdout(), ctrl.View())
}
