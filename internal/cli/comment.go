package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/portfolio/internal/comment"
)

func newCommentCmd() *cobra.Command {
	var name, email, mood string

	cmd := &cobra.Command{
		Use:   `comment "message"`,
		Short: "Leave a comment",
		Long:  "Post a comment as the logged in user. Requires an API key (see 'pf login').",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := comment.NewComment{
				Name:    name,
				Email:   email,
				Message: strings.Join(args, " "),
				Mood:    comment.Mood(mood),
			}
			return runComment(cmd, in)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "name shown with the comment")
	cmd.Flags().StringVar(&email, "email", "", "email shown with the comment (default: your login email)")
	cmd.Flags().StringVar(&mood, "mood", string(comment.Neutral), "mood icon (happy|sad|excited|angry|neutral)")

	return cmd
}

func runComment(cmd *cobra.Command, in comment.NewComment) error {
	if strings.TrimSpace(in.Message) == "" {
		return fmt.Errorf("comment text is required")
	}
	if !in.Mood.IsValid() {
		return fmt.Errorf("invalid mood %q", in.Mood)
	}

	c, err := newAPIClient().AddComment(cmd.Context(), in)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), c)
	}

	printCommentSingle(cmd.OutOrStdout(), c)
	return nil
}
