package linked

import (
	"sort"
	"sync"

	"github.com/dshills/linkedit/internal/text"
)

// Group is one linked-range group: a primary span plus its sibling
// spans in the same buffer. Siblings never include the primary itself.
type Group struct {
	Primary  text.AnchorRange
	Siblings []text.AnchorRange
}

// Index holds, per buffer, the current link groups. Entries for each
// buffer are sorted ascending by primary start and are non-overlapping
// ([i].Primary.End <= [i+1].Primary.Start), which is what makes the
// single-candidate lookup below correct.
//
// The index is replaced wholesale on every successful refresh cycle;
// readers observe either the fully-previous or the fully-new contents.
type Index struct {
	mu     sync.RWMutex
	groups map[text.BufferID][]Group
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{groups: make(map[text.BufferID][]Group)}
}

// Lookup returns the group whose primary range contains the query
// range, if any. The snapshot must be a current snapshot of the queried
// buffer; anchors are compared under it.
//
// Because entries are sorted and non-overlapping, the containing entry
// (if one exists) is the rightmost whose primary starts at or before
// the query start, so a partition-point search plus one end check
// suffices.
func (x *Index) Lookup(id text.BufferID, q text.AnchorRange, snap *text.Snapshot) (Group, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	entries := x.groups[id]
	lower := sort.Search(len(entries), func(i int) bool {
		return snap.Compare(entries[i].Primary.Start, q.Start) > 0
	})
	if lower == 0 {
		// The query precedes every group.
		return Group{}, false
	}

	candidate := entries[lower-1]
	if snap.Compare(candidate.Primary.End, q.End) >= 0 {
		return candidate, true
	}
	return Group{}, false
}

// Groups returns the buffer's current groups in order.
func (x *Index) Groups(id text.BufferID) []Group {
	x.mu.RLock()
	defer x.mu.RUnlock()

	entries := x.groups[id]
	out := make([]Group, len(entries))
	copy(out, entries)
	return out
}

// BufferCount returns the number of buffers holding at least one group.
func (x *Index) BufferCount() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.groups)
}

// IsEmpty returns true iff no buffer holds any groups.
func (x *Index) IsEmpty() bool {
	x.mu.RLock()
	defer x.mu.RUnlock()

	for _, entries := range x.groups {
		if len(entries) > 0 {
			return false
		}
	}
	return true
}

// Clear empties the whole index. Used when a rename starts, and before
// installing a fresh merge.
func (x *Index) Clear() {
	x.mu.Lock()
	x.groups = make(map[text.BufferID][]Group)
	x.mu.Unlock()
}

// replaceAll installs a freshly merged group set in one step.
func (x *Index) replaceAll(groups map[text.BufferID][]Group) {
	x.mu.Lock()
	x.groups = groups
	x.mu.Unlock()
}
