package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/evcraddock/portfolio/internal/commentsync"
)

const defaultLimit = 5

func newCommentsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "comments",
		Short: "List comments",
		Long:  "Fetch the latest comments, oldest first, along with your login status.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComments(cmd, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", defaultLimit, "maximum number of comments to fetch")

	return cmd
}

func runComments(cmd *cobra.Command, limit int) error {
	ctrl, err := refreshed(cmd.Context(), newAPIClient(), limit)
	if err != nil {
		return err
	}
	return printView(cmd.OutOrStdout(), ctrl.View())
}

// refreshed returns a controller whose view holds the current comments.
func refreshed(ctx context.Context, api commentsync.API, limit int) (*commentsync.Controller, error) {
	ctrl := commentsync.NewController(api, &commentsync.View{}, commentsync.FixedLimit(limit))
	if err := ctrl.Refresh(ctx); err != nil {
		return nil, err
	}
	return ctrl, nil
}
