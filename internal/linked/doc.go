// Package linked tracks linked editing ranges: groups of sibling text
// spans (such as the opening and closing name of an HTML element) that
// should receive the same edit.
//
// The package has two halves:
//
//   - Index: the per-buffer store of link groups, sorted and
//     non-overlapping, answering "which group contains this selection"
//     by partition-point search.
//   - Refresher: the refresh pipeline that recomputes groups from a
//     Provider whenever the selection changes, with at most one
//     authoritative cycle at a time.
//
// What is linked is decided entirely by the Provider (typically a
// language server); this package only tracks, queries, and refreshes
// the group set.
//
// # Concurrency
//
// Index lookups never block on a running refresh: installs replace the
// whole store in one step, so a reader observes either the previous or
// the new index, never a partial merge. Cycles are superseded by
// generation number; a superseded cycle's results are discarded even
// if its provider requests complete. A pending rename suppresses the
// pipeline entirely, both before any request is issued and again
// before results are installed.
package linked
