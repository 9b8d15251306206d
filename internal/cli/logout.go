package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/portfolio/internal/client"
)

var errKeyNotListed = errors.New("key not found on server")

func newLogoutCmd() *cobra.Command {
	var localOnly bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Revoke and remove the stored API key",
		Long:  "Revokes the stored API key on the server, then removes it from the config file. The local copy is removed even when the server cannot be reached.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd, localOnly)
		},
	}

	cmd.Flags().BoolVar(&localOnly, "local", false, "only remove the key from this machine")

	return cmd
}

func runLogout(cmd *cobra.Command, localOnly bool) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.APIKey == "" {
		fmt.Fprintln(out, "Not logged in.")
		return nil
	}

	if !localOnly {
		c := client.New(getServerURL(), cfg.APIKey, client.WithRetry(0, 0))
		if err := revokeKey(cmd.Context(), c, cfg.APIKey); err != nil {
			fmt.Fprintf(out, "warning: could not revoke key on server: %v\n", err)
		} else {
			fmt.Fprintln(out, "✓ API key revoked on server.")
		}
	}

	cfg.APIKey = ""
	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintln(out, "✓ Logged out. API key removed.")
	return nil
}

// revokeKey finds the server's record of raw by its prefix and deletes it.
func revokeKey(ctx context.Context, c *client.Client, raw string) error {
	keys, err := c.APIKeys(ctx)
	if err != nil {
		return err
	}

	prefix := raw
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	for _, k := range keys {
		if k.KeyPrefix == prefix {
			return c.RevokeAPIKey(ctx, k.ID)
		}
	}
	return errKeyNotListed
}
