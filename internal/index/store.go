package index

import (
	"maps"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
)

// Store is the mutable owner of the index. Mutations are serialized through
// a single writer (the indexer pipeline); readers take snapshots and never
// block the writer or each other.
type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
	version uint64
}

// NewStore creates an empty store with an initial empty snapshot.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(&Snapshot{
		entries: nil,
		grams:   make(map[string][]string),
	})
	return s
}

// Snapshot returns the current immutable snapshot. Never blocks.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Apply applies a batch of mutations and publishes the resulting snapshot
// atomically. Each upserted entry receives a fresh monotonic version stamp.
// Later mutations in the batch win over earlier ones for the same path.
func (s *Store) Apply(batch []Mutation) {
	if len(batch) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.current.Load()
	entries := slices.Clone(cur.entries)
	grams := cur.grams
	gramsCloned := false

	cloneGrams := func() {
		if !gramsCloned {
			grams = maps.Clone(grams)
			gramsCloned = true
		}
	}

	for _, mut := range batch {
		i := sort.Search(len(entries), func(i int) bool {
			return entries[i].Path >= mut.Path
		})
		exists := i < len(entries) && entries[i].Path == mut.Path

		switch mut.Op {
		case OpUpsert:
			s.version++
			e := &Entry{
				Path:    mut.Path,
				Kind:    mut.Meta.Kind,
				Size:    mut.Meta.Size,
				ModTime: mut.Meta.ModTime,
				Version: s.version,
			}
			if exists {
				// Path set unchanged, trigram buckets stay as they are.
				entries[i] = e
				continue
			}
			entries = slices.Insert(entries, i, e)
			cloneGrams()
			for _, g := range trigramsOf(mut.Path) {
				grams[g] = bucketInsert(grams[g], mut.Path)
			}

		case OpRemove:
			if !exists {
				continue
			}
			s.version++
			entries = slices.Delete(entries, i, i+1)
			cloneGrams()
			for _, g := range trigramsOf(mut.Path) {
				if next := bucketRemove(grams[g], mut.Path); next == nil {
					delete(grams, g)
				} else {
					grams[g] = next
				}
			}
		}
	}

	s.current.Store(&Snapshot{
		entries: entries,
		grams:   grams,
		version: s.version,
	})
}
