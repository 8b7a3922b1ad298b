// Package index implements the in-memory path index.
//
// The store holds one immutable snapshot at a time, published atomically.
// A mutation batch produces a new snapshot that shares unchanged trigram
// buckets with its predecessor (copy-on-write), so readers never block the
// writer and never observe a partially applied batch. Old snapshots stay
// valid for as long as a query holds them; the garbage collector reclaims
// them once the last reference is dropped.
package index

import (
	"strings"
	"time"

	"github.com/pathdex/pathdex/internal/meta"
)

// Entry is one indexed path. Entries are immutable once published; an
// update replaces the entry with a new value carrying a higher version.
type Entry struct {
	// Path is the absolute filesystem path.
	Path string
	// Kind classifies the object at last observation.
	Kind meta.Kind
	// Size is the size in bytes at last observation.
	Size int64
	// ModTime is the modification time at last observation.
	ModTime time.Time
	// Version is a store-wide monotonically increasing stamp assigned at
	// the mutation that produced this entry value.
	Version uint64
}

// Compare orders entries canonically: lexicographic by path, ties broken by
// kind then version. Within one snapshot paths are unique, so the tiebreaks
// only matter when comparing entries across snapshots.
func Compare(a, b *Entry) int {
	if c := strings.Compare(a.Path, b.Path); c != 0 {
		return c
	}
	if a.Kind != b.Kind {
		if a.Kind < b.Kind {
			return -1
		}
		return 1
	}
	switch {
	case a.Version < b.Version:
		return -1
	case a.Version > b.Version:
		return 1
	default:
		return 0
	}
}

// Op is a mutation kind applied to the store.
type Op int

const (
	// OpUpsert inserts a new entry or replaces the entry for a path.
	OpUpsert Op = iota
	// OpRemove deletes the entry for a path.
	OpRemove
)

// Mutation is one pending change to the index.
type Mutation struct {
	// Op is the mutation kind.
	Op Op
	// Path is the absolute path the mutation applies to.
	Path string
	// Meta carries the metadata for OpUpsert; ignored for OpRemove.
	Meta meta.Metadata
}
