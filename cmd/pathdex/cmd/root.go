// Package cmd provides the CLI commands for pathdex.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pathdex/pathdex/pkg/version"
)

// configPath is the --config flag shared by all subcommands.
var configPath string

// NewRootCmd creates the root command for the pathdex CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pathdex",
		Short: "Fast permission-aware path search",
		Long: `Pathdex keeps an in-memory index of the paths under your configured
roots and answers substring queries instantly, filtered by
what the requesting user is allowed to see.

A background daemon watches the roots for changes and keeps the index
current. Quick start:

  pathdex init            # write a starter config
  pathdex daemon start    # start the indexing daemon
  pathdex search report   # find paths containing "report"`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("pathdex version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default ~/.pathdex/config.yaml)")

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newDaemonCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newStopCmd())
	cmd.AddCommand(newTokenCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
