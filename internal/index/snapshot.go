package index

import (
	"context"
	"sort"
	"strings"
)

// ctxCheckInterval is how many entries a scan visits between context
// deadline checks. Keeps pathological single-character patterns against
// millions of paths from running unbounded.
const ctxCheckInterval = 4096

// Snapshot is an immutable point-in-time view of the index. It is safe for
// concurrent use by any number of readers and stays valid after newer
// snapshots are published.
type Snapshot struct {
	// entries is sorted lexicographically by path.
	entries []*Entry
	// grams maps each trigram to the sorted paths containing it.
	grams map[string][]string
	// version is the write-serial point this snapshot reflects.
	version uint64
}

// Len returns the number of indexed paths.
func (s *Snapshot) Len() int {
	return len(s.entries)
}

// Version returns the write-serial point this snapshot reflects.
func (s *Snapshot) Version() uint64 {
	return s.version
}

// Lookup returns the entry for an exact path.
func (s *Snapshot) Lookup(path string) (*Entry, bool) {
	i := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].Path >= path
	})
	if i < len(s.entries) && s.entries[i].Path == path {
		return s.entries[i], true
	}
	return nil, false
}

// Entries returns the full entry slice in canonical order.
// Callers must not modify the returned slice.
func (s *Snapshot) Entries() []*Entry {
	return s.entries
}

// PrefixScan returns all entries whose path starts with prefix, in
// canonical order. The sorted entry slice makes this a binary search for
// the range start followed by a bounded walk.
func (s *Snapshot) PrefixScan(ctx context.Context, prefix string) ([]*Entry, error) {
	start := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].Path >= prefix
	})

	var results []*Entry
	for i := start; i < len(s.entries); i++ {
		if (i-start)%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if !strings.HasPrefix(s.entries[i].Path, prefix) {
			break
		}
		results = append(results, s.entries[i])
	}
	return results, nil
}

// Search returns all entries whose path contains pattern as a substring, in
// canonical order. Patterns of trigram width or longer are serviced by the
// inverted index: the rarest trigram bucket bounds the candidate set, and
// every candidate is verified with a direct substring check. Shorter
// patterns fall back to a full scan of the snapshot.
func (s *Snapshot) Search(ctx context.Context, pattern string) ([]*Entry, error) {
	if len(pattern) < trigramLen {
		return s.fullScan(ctx, pattern)
	}

	bucket, ok := s.rarestBucket(pattern)
	if !ok {
		// Some trigram of the pattern occurs in no path.
		return nil, nil
	}

	var results []*Entry
	for i, path := range bucket {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if !strings.Contains(path, pattern) {
			continue
		}
		if e, ok := s.Lookup(path); ok {
			results = append(results, e)
		}
	}
	return results, nil
}

// rarestBucket returns the smallest trigram bucket for the pattern.
// Any path containing the pattern contains every trigram of it, so the
// smallest bucket is a complete candidate set.
func (s *Snapshot) rarestBucket(pattern string) ([]string, bool) {
	var rarest []string
	found := false
	for _, g := range trigramsOf(pattern) {
		bucket, ok := s.grams[g]
		if !ok {
			return nil, false
		}
		if !found || len(bucket) < len(rarest) {
			rarest = bucket
			found = true
		}
	}
	return rarest, found
}

// fullScan matches pattern against every entry in the snapshot.
func (s *Snapshot) fullScan(ctx context.Context, pattern string) ([]*Entry, error) {
	var results []*Entry
	for i, e := range s.entries {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if strings.Contains(e.Path, pattern) {
			results = append(results, e)
		}
	}
	return results, nil
}
