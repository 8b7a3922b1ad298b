package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pathdex/pathdex/pkg/version"
)

func newVersionCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if verbose {
				fmt.Fprintln(cmd.OutOrStdout(), version.String())
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), version.Short())
			}
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Include commit and build date")
	return cmd
}
