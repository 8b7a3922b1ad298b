package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pathdex/pathdex/internal/config"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [root...]",
		Short: "Write a starter config file",
		Long: `Write a starter configuration to ~/.pathdex/config.yaml (or the path
given with --config). Roots passed as arguments are recorded as the
trees to index; they must be absolute paths.

Examples:
  pathdex init /srv/docs /home/shared
  pathdex init --config ./pathdex.yaml /data`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, args, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func runInit(cmd *cobra.Command, roots []string, force bool) error {
	target := configPath
	if target == "" {
		target = config.DefaultConfigPath()
	}

	if _, err := os.Stat(target); err == nil && !force {
		return fmt.Errorf("config already exists at %s (use --force to overwrite)", target)
	}

	for _, root := range roots {
		if !filepath.IsAbs(root) {
			return fmt.Errorf("root must be an absolute path: %s", root)
		}
		info, err := os.Stat(root)
		if err != nil {
			return fmt.Errorf("root is not accessible: %s: %w", root, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("root is not a directory: %s", root)
		}
	}

	cfg := config.NewConfig()
	cfg.Roots = roots
	if err := cfg.WriteYAML(target); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote config to %s\n", target)
	if len(roots) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Add roots to the config before starting the daemon.")
	}
	return nil
}
