package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pathdex/pathdex/internal/config"
	"github.com/pathdex/pathdex/internal/daemon"
	"github.com/pathdex/pathdex/internal/logging"
	"github.com/pathdex/pathdex/internal/output"
)

func newDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Manage the background indexing daemon",
		Long: `The daemon scans the configured roots, keeps the path index current by
watching for filesystem changes, and answers queries over a Unix socket.

Commands:
  start   Start the daemon (runs in background by default)
  stop    Stop the running daemon
  status  Show daemon status

Examples:
  pathdex daemon start      # Start daemon in background
  pathdex daemon start -f   # Run in foreground (for debugging)
  pathdex daemon status     # Check if daemon is running
  pathdex daemon stop       # Stop the daemon`,
	}

	cmd.AddCommand(newDaemonStartCmd())
	cmd.AddCommand(newDaemonStopCmd())
	cmd.AddCommand(newDaemonStatusCmd())

	return cmd
}

func newDaemonStartCmd() *cobra.Command {
	var foreground bool

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the indexing daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemonStart(cmd.Context(), cmd, foreground)
		},
	}

	cmd.Flags().BoolVarP(&foreground, "foreground", "f", false, "Run in foreground (don't daemonize)")
	return cmd
}

func newDaemonStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemonStop(cmd)
		},
	}
}

func newDaemonStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), cmd)
		},
	}
}

func runDaemonStart(ctx context.Context, cmd *cobra.Command, foreground bool) error {
	out := output.New(cmd.OutOrStdout())

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	dcfg := transportConfig(cfg)
	client := daemon.NewClient(dcfg)
	if client.IsRunning() {
		out.Status("Daemon is already running")
		return nil
	}

	if foreground {
		logCfg := logging.Config{
			Level:         cfg.Log.Level,
			FilePath:      cfg.Log.File,
			MaxSizeMB:     cfg.Log.MaxSizeMB,
			MaxFiles:      cfg.Log.MaxFiles,
			WriteToStderr: true,
		}
		if logCfg.FilePath == "" {
			logCfg.FilePath = logging.DefaultLogPath()
		}
		if logger, cleanup, err := logging.Setup(logCfg); err == nil {
			slog.SetDefault(logger)
			defer cleanup()
		}

		out.Statusf("Socket: %s", cfg.SocketPath())
		out.Statusf("Roots: %v", cfg.Roots)
		out.Status("Press Ctrl+C to stop")

		return runService(ctx, cfg, dcfg)
	}

	// Re-execute self detached, with the foreground flag.
	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	args := []string{"daemon", "start", "--foreground"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	bgCmd := exec.Command(execPath, args...)
	bgCmd.Stdout = nil
	bgCmd.Stderr = nil
	bgCmd.Stdin = nil
	bgCmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := bgCmd.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	// Reap the child if it exits; detect failures before it binds.
	done := make(chan error, 1)
	go func() { done <- bgCmd.Wait() }()

	for i := 0; i < 50; i++ {
		select {
		case err := <-done:
			if err != nil {
				return fmt.Errorf("daemon process exited unexpectedly: %w", err)
			}
			return fmt.Errorf("daemon process exited unexpectedly with code 0")
		default:
		}

		time.Sleep(100 * time.Millisecond)
		if client.IsRunning() {
			out.Statusf("Daemon started (pid: %d)", bgCmd.Process.Pid)
			return nil
		}
	}

	return fmt.Errorf("daemon failed to start within timeout")
}

func runDaemonStop(cmd *cobra.Command) error {
	out := output.New(cmd.OutOrStdout())

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	pid, err := daemon.ReadPID(cfg.LockPath())
	if err != nil {
		if errors.Is(err, daemon.ErrLockNotFound) {
			out.Status("Daemon is not running")
			return nil
		}
		return err
	}
	if !daemon.IsProcessRunning(pid) {
		out.Status("Daemon is not running")
		return nil
	}

	if err := daemon.Stop(cfg.LockPath()); err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}

	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		if !daemon.IsProcessRunning(pid) {
			out.Statusf("Daemon stopped (was pid: %d)", pid)
			return nil
		}
	}
	return fmt.Errorf("daemon did not stop within timeout (pid: %d)", pid)
}

// runService runs the daemon in the current process until a signal or
// fatal error stops it.
func runService(ctx context.Context, cfg *config.Config, dcfg daemon.Config) error {
	if err := dcfg.EnsureDir(); err != nil {
		return err
	}

	lock, err := daemon.Acquire(dcfg.LockPath)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	svc, err := newService(cfg)
	if err != nil {
		return err
	}

	server := daemon.NewServer(dcfg.SocketPath)
	server.SetHandler(svc)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("daemon starting",
		slog.Any("roots", cfg.Roots),
		slog.String("socket", dcfg.SocketPath),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return svc.runWatcher(gctx) })
	g.Go(func() error { return svc.runPipeline(gctx) })
	g.Go(func() error { return server.ListenAndServe(gctx) })
	g.Go(func() error {
		// Watches must cover the roots before the walk starts, so a path
		// that changes mid-scan arrives as an ordinary event instead of
		// being missed forever.
		select {
		case <-svc.watch.Ready():
		case <-gctx.Done():
			return gctx.Err()
		}
		if err := svc.initialScan(gctx); err != nil {
			// One unreadable root should not take the daemon down; the
			// remaining roots are already indexed.
			slog.Error("initial scan incomplete", slog.String("error", err.Error()))
		}
		return nil
	})

	err = g.Wait()
	svc.shutdown()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("daemon stopped")
	return nil
}

// transportConfig derives the socket transport settings from the daemon
// configuration.
func transportConfig(cfg *config.Config) daemon.Config {
	dcfg := daemon.DefaultConfig()
	dcfg.SocketPath = cfg.SocketPath()
	dcfg.LockPath = cfg.LockPath()
	return dcfg
}
