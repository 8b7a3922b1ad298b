package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning is returned when another daemon holds the lock.
var ErrAlreadyRunning = errors.New("daemon already running")

// ErrLockNotFound is returned when the lock file doesn't exist.
var ErrLockNotFound = errors.New("lock file not found")

// Lock is an advisory file lock carrying the holder's PID. Holding it marks
// this process as the daemon for the data directory; the kernel releases
// the flock automatically if the process dies, so a leftover file never
// blocks a restart.
type Lock struct {
	fl   *flock.Flock
	path string
}

// Acquire takes the lock, writing the current PID into the file. Returns
// ErrAlreadyRunning (with the holder's PID when readable) if another
// process holds it.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		if pid, rerr := ReadPID(path); rerr == nil {
			return nil, fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
		}
		return nil, ErrAlreadyRunning
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		_ = fl.Unlock()
		return nil, fmt.Errorf("failed to write lock file: %w", err)
	}

	return &Lock{fl: fl, path: path}, nil
}

// Release unlocks and removes the lock file.
func (l *Lock) Release() error {
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// ReadPID reads the daemon PID recorded in the lock file.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrLockNotFound
		}
		return 0, fmt.Errorf("failed to read lock file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid lock file contents: %w", err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("invalid PID in lock file: %d", pid)
	}
	return pid, nil
}

// IsProcessRunning checks whether the process with the given PID exists.
func IsProcessRunning(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 probes for existence without delivering a signal.
	err = proc.Signal(syscall.Signal(0))
	return err == nil
}

// Stop signals the daemon recorded in the lock file to shut down.
func Stop(lockPath string) error {
	pid, err := ReadPID(lockPath)
	if err != nil {
		return err
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to signal daemon: %w", err)
	}
	return nil
}
