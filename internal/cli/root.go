// Package cli defines the cobra command tree for pf.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/evcraddock/portfolio/internal/client"
)

var flagFormat string

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pf",
		Short:         "Read and manage portfolio comments",
		Long:          "A tool for the portfolio site. List, add and delete visitor comments, check login status, vote in the breakfast survey, or run the web server.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")

	root.AddCommand(
		newCommentsCmd(),
		newCommentCmd(),
		newDeleteCmd(),
		newStatusCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newServeCmd(),
		newFactCmd(),
		newSurveyCmd(),
		newVoteCmd(),
		newVersionCmd(),
	)

	return root
}

// newAPIClient creates an HTTP client for the portfolio API.
func newAPIClient() *client.Client {
	return client.New(getServerURL(), getAPIKey())
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}
