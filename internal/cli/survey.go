package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/portfolio/internal/survey"
)

func newSurveyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "survey",
		Short: "Show breakfast survey results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			counts, err := newAPIClient().Survey(cmd.Context())
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), counts)
			}
			return printCounts(cmd.OutOrStdout(), counts)
		},
	}
}

func newVoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   `vote "option"`,
		Short: "Vote in the breakfast survey",
		Long:  "Vote for one of: " + strings.Join(survey.Options, ", ") + ".",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			option := strings.Join(args, " ")
			if !survey.IsOption(option) {
				return fmt.Errorf("unknown option %q (choose one of: %s)", option, strings.Join(survey.Options, ", "))
			}

			counts, err := newAPIClient().Vote(cmd.Context(), option)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), counts)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Voted for %s.\n\n", option)
			return printCounts(cmd.OutOrStdout(), counts)
		},
	}
}
