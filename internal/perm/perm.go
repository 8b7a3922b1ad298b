// Package perm maintains the permission index: per-path access metadata
// derived from the same stat calls that feed the path index, joined against
// a requesting user at query time.
//
// Visibility uses leaf mode bits only: the read bit of the requesting
// identity's permission class (owner, group, or other) decides access.
// Ancestor directory traversal permissions are a documented extension
// point and are not consulted.
package perm

import (
	"io/fs"
	"maps"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/pathdex/pathdex/internal/meta"
)

// Record is the effective access metadata for one path.
type Record struct {
	// Path is the absolute filesystem path, keyed identically to the
	// path index for a cheap join.
	Path string
	// UID is the owning user id.
	UID uint32
	// GID is the owning group id.
	GID uint32
	// Mode holds the permission bits.
	Mode fs.FileMode
}

// VisibleTo reports whether the identity may see this path. Permission
// classes are exclusive, matching kernel access checks: an owner is judged
// by the owner-read bit alone, a group member by the group-read bit alone,
// and only everyone else falls through to the other-read bit.
func (r Record) VisibleTo(id Identity) bool {
	if r.UID == id.UID {
		return r.Mode&0o400 != 0
	}
	if id.InGroup(r.GID) {
		return r.Mode&0o040 != 0
	}
	return r.Mode&0o004 != 0
}

// Mutation is one pending change to the permission index.
type Mutation struct {
	// Remove deletes the record for Record.Path; otherwise upsert.
	Remove bool
	// Record carries the new access metadata for upserts.
	Record Record
}

// FromMetadata builds a record from resolver output for a path.
func FromMetadata(path string, m meta.Metadata) Record {
	return Record{Path: path, UID: m.UID, GID: m.GID, Mode: m.Mode}
}

// Index is the mutable owner of permission records. Like the path index it
// has a single writer and lock-free snapshot readers.
type Index struct {
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
}

// Snapshot is an immutable point-in-time view of the permission index.
type Snapshot struct {
	// byPath maps path to its record.
	byPath map[string]Record
}

// NewIndex creates an empty permission index.
func NewIndex() *Index {
	idx := &Index{}
	idx.current.Store(&Snapshot{byPath: make(map[string]Record)})
	return idx
}

// Snapshot returns the current immutable snapshot. Never blocks.
func (i *Index) Snapshot() *Snapshot {
	return i.current.Load()
}

// Apply applies a batch of mutations and publishes the resulting snapshot
// atomically. Later mutations win over earlier ones for the same path.
func (i *Index) Apply(batch []Mutation) {
	if len(batch) == 0 {
		return
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	next := maps.Clone(i.current.Load().byPath)
	for _, mut := range batch {
		if mut.Remove {
			delete(next, mut.Record.Path)
		} else {
			next[mut.Record.Path] = mut.Record
		}
	}
	i.current.Store(&Snapshot{byPath: next})
}

// Len returns the number of records in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.byPath)
}

// Lookup returns the record for an exact path.
func (s *Snapshot) Lookup(path string) (Record, bool) {
	r, ok := s.byPath[path]
	return r, ok
}

// Visible reports whether the identity may see the given path. Paths with
// no record (not yet indexed, or raced with a removal) are not visible.
func (s *Snapshot) Visible(path string, id Identity) bool {
	r, ok := s.byPath[path]
	if !ok {
		return false
	}
	return r.VisibleTo(id)
}

// Paths returns the recorded paths in sorted order. Test helper.
func (s *Snapshot) Paths() []string {
	out := make([]string, 0, len(s.byPath))
	for p := range s.byPath {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
