package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pathdex/pathdex/internal/config"
	"github.com/pathdex/pathdex/internal/daemon"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage access tokens",
	}
	cmd.AddCommand(newTokenPathCmd())
	return cmd
}

func newTokenPathCmd() *cobra.Command {
	var forUser string

	cmd := &cobra.Command{
		Use:   "path",
		Short: "Print the token file path for a user",
		Long: `Ask the running daemon for the token file of the given user, issuing a
token on first use. The file is created readable only by that user.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			client := daemon.NewClient(transportConfig(cfg))
			if !client.IsRunning() {
				return fmt.Errorf("daemon is not running (start it with 'pathdex daemon start')")
			}

			path, err := client.SecretPath(cmd.Context(), forUser)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&forUser, "user", "u", "", "System user to issue the token for (required)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
