package index

import "sort"

// trigramLen is the n-gram width of the inverted index. Patterns shorter
// than this cannot be serviced by the trigram index and fall back to a
// full snapshot scan.
const trigramLen = 3

// trigramsOf returns the distinct trigrams of s in first-seen order.
func trigramsOf(s string) []string {
	if len(s) < trigramLen {
		return nil
	}
	seen := make(map[string]struct{}, len(s))
	grams := make([]string, 0, len(s)-trigramLen+1)
	for i := 0; i+trigramLen <= len(s); i++ {
		g := s[i : i+trigramLen]
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		grams = append(grams, g)
	}
	return grams
}

// bucketInsert returns a new sorted bucket with path added.
// The input bucket is never modified.
func bucketInsert(bucket []string, path string) []string {
	i := sort.SearchStrings(bucket, path)
	if i < len(bucket) && bucket[i] == path {
		return bucket
	}
	next := make([]string, 0, len(bucket)+1)
	next = append(next, bucket[:i]...)
	next = append(next, path)
	next = append(next, bucket[i:]...)
	return next
}

// bucketRemove returns a new sorted bucket with path removed, or nil when
// the bucket becomes empty. The input bucket is never modified.
func bucketRemove(bucket []string, path string) []string {
	i := sort.SearchStrings(bucket, path)
	if i >= len(bucket) || bucket[i] != path {
		return bucket
	}
	if len(bucket) == 1 {
		return nil
	}
	next := make([]string, 0, len(bucket)-1)
	next = append(next, bucket[:i]...)
	next = append(next, bucket[i+1:]...)
	return next
}
