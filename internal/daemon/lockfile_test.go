package daemon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_WritesPID(t *testing.T) {
	// Given: a lock path in an empty directory
	path := filepath.Join(t.TempDir(), "pathdexd.lock")

	// When: the lock is acquired
	lock, err := Acquire(path)
	require.NoError(t, err)
	defer func() { _ = lock.Release() }()

	// Then: the file records this process's PID
	pid, err := ReadPID(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}

func TestAcquire_SecondHolderRejected(t *testing.T) {
	// Given: an acquired lock
	path := filepath.Join(t.TempDir(), "pathdexd.lock")
	lock, err := Acquire(path)
	require.NoError(t, err)
	defer func() { _ = lock.Release() }()

	// When: the same path is locked again
	_, err = Acquire(path)

	// Then: the second attempt is rejected
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestRelease_AllowsReacquire(t *testing.T) {
	// Given: an acquired and released lock
	path := filepath.Join(t.TempDir(), "pathdexd.lock")
	lock, err := Acquire(path)
	require.NoError(t, err)
	require.NoError(t, lock.Release())

	// When: the lock is acquired again
	again, err := Acquire(path)

	// Then: it succeeds
	require.NoError(t, err)
	_ = again.Release()
}

func TestReadPID_MissingFile(t *testing.T) {
	_, err := ReadPID(filepath.Join(t.TempDir(), "absent.lock"))
	assert.ErrorIs(t, err, ErrLockNotFound)
}

func TestReadPID_GarbageContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pathdexd.lock")
	require.NoError(t, os.WriteFile(path, []byte("not-a-pid"), 0o644))

	_, err := ReadPID(path)
	assert.Error(t, err)
}

func TestIsProcessRunning(t *testing.T) {
	assert.True(t, IsProcessRunning(os.Getpid()))
	assert.False(t, IsProcessRunning(1<<30))
}
