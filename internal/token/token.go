// Package token issues and validates per-user access secrets.
//
// Each user gets one token file under the daemon's token directory, named
// after the user, readable only by that user. A client proves its identity
// by reading its own token file and presenting the secret with each query;
// the daemon maps the secret back to the user and filters results by that
// user's filesystem permissions.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	pdxerrors "github.com/pathdex/pathdex/internal/errors"
	"github.com/pathdex/pathdex/internal/perm"
)

// secretBytes is the entropy of a token secret; hex-encoded on disk.
const secretBytes = 32

// tokenFileMode keeps the file readable by the owning user only.
const tokenFileMode = 0o400

// Manager owns the token directory and the secret-to-user mapping.
// Secrets are stable for the lifetime of the daemon; restarting reloads
// the existing files rather than rotating them.
type Manager struct {
	dir      string
	resolver *perm.Resolver
	mu       sync.Mutex
	byUser   map[string]string
	bySecret map[string]string
}

// NewManager creates the token directory if needed and reloads any token
// files already present.
func NewManager(dir string, resolver *perm.Resolver) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, pdxerrors.TokenIOError("create token directory", err)
	}

	m := &Manager{
		dir:      dir,
		resolver: resolver,
		byUser:   make(map[string]string),
		bySecret: make(map[string]string),
	}
	if err := m.reload(); err != nil {
		return nil, err
	}
	return m, nil
}

// reload reads existing token files so secrets survive daemon restarts.
func (m *Manager) reload() error {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return pdxerrors.TokenIOError("read token directory", err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		data, err := os.ReadFile(filepath.Join(m.dir, name))
		if err != nil {
			slog.Warn("skipping unreadable token file",
				slog.String("user", name),
				slog.String("error", err.Error()),
			)
			continue
		}
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			continue
		}
		m.byUser[name] = secret
		m.bySecret[secret] = name
	}

	if len(m.byUser) > 0 {
		slog.Info("reloaded token files", slog.Int("count", len(m.byUser)))
	}
	return nil
}

// PathFor returns the token file path for the user, creating the token on
// first use. The user must exist on the system.
func (m *Manager) PathFor(username string) (string, error) {
	id, err := m.resolver.Lookup(username)
	if err != nil {
		return "", pdxerrors.AuthError()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	path := filepath.Join(m.dir, username)
	if secret, ok := m.byUser[username]; ok {
		// The file may have been deleted out from under the daemon; a
		// missing file forces a reissue rather than a dangling path.
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		delete(m.byUser, username)
		delete(m.bySecret, secret)
		slog.Warn("token file missing, reissuing", slog.String("user", username))
	}

	secret, err := newSecret()
	if err != nil {
		return "", pdxerrors.TokenIOError("generate token secret", err)
	}
	if err := m.writeTokenFile(path, secret, id); err != nil {
		return "", err
	}

	m.byUser[username] = secret
	m.bySecret[secret] = username
	slog.Info("issued token", slog.String("user", username))
	return path, nil
}

// EnsureUsers issues tokens for the given users eagerly, typically at
// daemon startup for the users named in the configuration.
func (m *Manager) EnsureUsers(users []string) error {
	for _, u := range users {
		if _, err := m.PathFor(u); err != nil {
			return pdxerrors.TokenIOError("issue token for "+u, err)
		}
	}
	return nil
}

// Validate maps a presented secret back to the owning user's identity.
// An unknown secret yields an opaque authentication failure.
func (m *Manager) Validate(secret string) (perm.Identity, error) {
	m.mu.Lock()
	username, ok := m.bySecret[secret]
	m.mu.Unlock()

	if !ok {
		return perm.Identity{}, pdxerrors.AuthError()
	}

	id, err := m.resolver.Lookup(username)
	if err != nil {
		return perm.Identity{}, pdxerrors.AuthError()
	}
	return id, nil
}

// writeTokenFile writes the secret readable only by the owning user.
func (m *Manager) writeTokenFile(path, secret string, id perm.Identity) error {
	if err := os.WriteFile(path, []byte(secret+"\n"), tokenFileMode); err != nil {
		return pdxerrors.TokenIOError("write token file", err)
	}
	if err := os.Chown(path, int(id.UID), -1); err != nil {
		// Without privileges the file stays owned by the daemon user.
		// The named user then cannot read it, which is worth surfacing.
		slog.Warn("could not chown token file",
			slog.String("path", path),
			slog.String("uid", strconv.FormatUint(uint64(id.UID), 10)),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

func newSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
