package perm

import (
	"fmt"
	"os/user"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
)

// identCacheSize bounds the user/group lookup cache. Local systems rarely
// have more than a handful of querying users; the bound just prevents
// unbounded growth in long-running daemons.
const identCacheSize = 256

// Identity is a resolved local user: uid plus the full group set used for
// the group-read visibility check.
type Identity struct {
	// Name is the local username.
	Name string
	// UID is the user id.
	UID uint32
	// Groups holds every group id the user belongs to, primary included.
	Groups map[uint32]struct{}
}

// InGroup reports whether the identity belongs to the given group.
func (id Identity) InGroup(gid uint32) bool {
	_, ok := id.Groups[gid]
	return ok
}

// Resolver resolves usernames to identities through os/user, caching
// results in an LRU so the hot query path avoids repeated NSS lookups.
type Resolver struct {
	cache *lru.Cache[string, Identity]
}

// NewResolver creates an identity resolver.
func NewResolver() (*Resolver, error) {
	cache, err := lru.New[string, Identity](identCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity cache: %w", err)
	}
	return &Resolver{cache: cache}, nil
}

// Lookup resolves a local username to an identity.
func (r *Resolver) Lookup(username string) (Identity, error) {
	if id, ok := r.cache.Get(username); ok {
		return id, nil
	}

	u, err := user.Lookup(username)
	if err != nil {
		return Identity{}, fmt.Errorf("lookup user %s: %w", username, err)
	}

	id, err := identityFromUser(u)
	if err != nil {
		return Identity{}, err
	}

	r.cache.Add(username, id)
	return id, nil
}

// identityFromUser builds an Identity from an os/user record.
func identityFromUser(u *user.User) (Identity, error) {
	uid, err := strconv.ParseUint(u.Uid, 10, 32)
	if err != nil {
		return Identity{}, fmt.Errorf("parse uid %q for user %s: %w", u.Uid, u.Username, err)
	}

	groups := make(map[uint32]struct{})
	if gid, err := strconv.ParseUint(u.Gid, 10, 32); err == nil {
		groups[uint32(gid)] = struct{}{}
	}

	// Supplementary groups; a failure here degrades to primary-group-only
	// visibility rather than failing the lookup.
	if ids, err := u.GroupIds(); err == nil {
		for _, g := range ids {
			if gid, err := strconv.ParseUint(g, 10, 32); err == nil {
				groups[uint32(gid)] = struct{}{}
			}
		}
	}

	return Identity{
		Name:   u.Username,
		UID:    uint32(uid),
		Groups: groups,
	}, nil
}
