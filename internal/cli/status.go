package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/portfolio/internal/client"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check connection and auth status",
		Long:  "Tests the connection to the server and checks if the stored API key is valid.",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	serverURL := getServerURL()
	apiKey := getAPIKey()

	fmt.Fprintf(out, "Server:  %s\n", serverURL)

	if apiKey == "" {
		fmt.Fprintln(out, "API Key: not configured")
	} else {
		prefix := apiKey
		if len(prefix) > 8 {
			prefix = prefix[:8]
		}
		fmt.Fprintf(out, "API Key: %s…\n", prefix)
	}

	status, err := client.New(serverURL, apiKey, client.WithRetry(0, 0)).LoginStatus(cmd.Context())
	switch {
	case errors.Is(err, client.ErrAuthRequired):
		fmt.Fprintln(out, "Status:  ✗ invalid API key")
		fmt.Fprintln(out, "\nRun 'pf login' to re-authenticate.")
	case err != nil:
		fmt.Fprintf(out, "Status:  ✗ cannot reach server (%v)\n", err)
	case status.LoggedIn():
		fmt.Fprintf(out, "Status:  ✓ logged in as %s\n", status.Email)
	default:
		fmt.Fprintln(out, "Status:  ✓ connected, not logged in")
		fmt.Fprintln(out, "\nRun 'pf login' to authenticate.")
	}

	return nil
}
