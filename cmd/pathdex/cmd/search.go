package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pathdex/pathdex/internal/config"
	"github.com/pathdex/pathdex/internal/daemon"
	"github.com/pathdex/pathdex/internal/output"
)

func newSearchCmd() *cobra.Command {
	var (
		count      int
		offset     int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "search <pattern>",
		Short: "Search indexed paths",
		Long: `Search the daemon's path index. The pattern matches anywhere in the
path as a substring. Results are limited to paths your filesystem
permissions let you read.

Examples:
  pathdex search report           # paths containing "report"
  pathdex search /srv/docs/       # paths containing "/srv/docs/"
  pathdex search .log --count 50  # first 50 matches`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, args[0], count, offset, jsonOutput)
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 100, "Maximum number of matches")
	cmd.Flags().IntVar(&offset, "offset", 0, "Skip this many matches")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, pattern string, count, offset int, jsonOutput bool) error {
	out := output.New(cmd.OutOrStdout())

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	client := daemon.NewClient(transportConfig(cfg))
	if !client.IsRunning() {
		return fmt.Errorf("daemon is not running (start it with 'pathdex daemon start')")
	}

	secret, err := fetchSecret(ctx, client)
	if err != nil {
		return err
	}

	res, err := client.Query(ctx, daemon.QueryParams{
		Secret:  secret,
		Pattern: pattern,
		Count:   count,
		Offset:  offset,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	out.Matches(res)
	return nil
}

// fetchSecret resolves the caller's token: ask the daemon where the token
// file lives, then read the secret from it. The file is readable only by
// its owner, so possession of the secret proves identity.
func fetchSecret(ctx context.Context, client *daemon.Client) (string, error) {
	u, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("failed to determine current user: %w", err)
	}

	path, err := client.SecretPath(ctx, u.Username)
	if err != nil {
		return "", fmt.Errorf("failed to obtain token path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read token file %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}
