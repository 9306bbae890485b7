package snapshot

import "sort"

// DiffResult classifies paths between two snapshots into three disjoint
// sets. Every path in any set exists in at least one of the snapshots.
type DiffResult struct {
	Added   []string // in new, not in old
	Removed []string // in old, not in new
	Changed []string // in both, digests differ
}

// IsEmpty reports whether the two snapshots were identical under noise
// filtering.
func (r DiffResult) IsEmpty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Changed) == 0
}

// Total is the number of classified paths.
func (r DiffResult) Total() int {
	return len(r.Added) + len(r.Removed) + len(r.Changed)
}

// Diff compares an old and a new snapshot. Pure function, O(n) in total
// entries. Result slices are sorted for stable display.
func Diff(oldSnap, newSnap Snapshot) DiffResult {
	var result DiffResult

	for path, digest := range newSnap {
		oldDigest, ok := oldSnap[path]
		switch {
		case !ok:
			result.Added = append(result.Added, path)
		case oldDigest != digest:
			result.Changed = append(result.Changed, path)
		}
	}
	for path := range oldSnap {
		if _, ok := newSnap[path]; !ok {
			result.Removed = append(result.Removed, path)
		}
	}

	sort.Strings(result.Added)
	sort.Strings(result.Removed)
	sort.Strings(result.Changed)
	return result
}
