package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pathdex/pathdex/internal/config"
	"github.com/pathdex/pathdex/internal/daemon"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), cmd)
		},
	}
}

func runStatus(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	client := daemon.NewClient(transportConfig(cfg))
	if !client.IsRunning() {
		fmt.Fprintln(cmd.OutOrStdout(), "Daemon: not running")
		return nil
	}

	status, err := client.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to query daemon status: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "Daemon: running")
	fmt.Fprintf(w, "  PID:           %d\n", status.PID)
	fmt.Fprintf(w, "  Uptime:        %s\n", status.Uptime)
	fmt.Fprintf(w, "  Entries:       %d\n", status.Entries)
	fmt.Fprintf(w, "  Index version: %d\n", status.IndexVersion)
	fmt.Fprintf(w, "  Watcher:       %s\n", status.WatcherType)
	fmt.Fprintf(w, "  Roots:         %s\n", strings.Join(status.Roots, ", "))
	return nil
}
