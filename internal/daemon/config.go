package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds the transport configuration shared by server and client.
type Config struct {
	// SocketPath is the Unix domain socket path for IPC.
	// Default: ~/.pathdex/pathdexd.sock
	SocketPath string

	// LockPath is the lock file enforcing a single daemon per data dir.
	// Default: ~/.pathdex/pathdexd.lock
	LockPath string

	// Timeout is the maximum duration for client-daemon communication.
	// Default: 30s
	Timeout time.Duration

	// ShutdownGracePeriod is the time to wait for graceful shutdown.
	// Default: 10s
	ShutdownGracePeriod time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "/tmp"
	}

	dataDir := filepath.Join(home, ".pathdex")

	return Config{
		SocketPath:          filepath.Join(dataDir, "pathdexd.sock"),
		LockPath:            filepath.Join(dataDir, "pathdexd.lock"),
		Timeout:             30 * time.Second,
		ShutdownGracePeriod: 10 * time.Second,
	}
}

// Validate checks that the configuration is valid.
func (c Config) Validate() error {
	if c.SocketPath == "" {
		return fmt.Errorf("socket path cannot be empty")
	}
	if c.LockPath == "" {
		return fmt.Errorf("lock path cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.ShutdownGracePeriod <= 0 {
		return fmt.Errorf("shutdown grace period must be positive")
	}
	return nil
}

// EnsureDir creates the directories for the socket and lock files.
func (c Config) EnsureDir() error {
	socketDir := filepath.Dir(c.SocketPath)
	if err := os.MkdirAll(socketDir, 0o755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}

	lockDir := filepath.Dir(c.LockPath)
	if lockDir != socketDir {
		if err := os.MkdirAll(lockDir, 0o755); err != nil {
			return fmt.Errorf("failed to create lock directory: %w", err)
		}
	}
	return nil
}
