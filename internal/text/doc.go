// Package text provides the buffer subsystem underlying linked-range
// tracking: revisioned text buffers, edit-surviving anchors, and
// immutable snapshots.
//
// # Buffers and Revisions
//
// A Buffer owns a piece of text and assigns a fresh RevisionID to every
// mutation. All Buffer methods are thread-safe.
//
// # Anchors
//
// An Anchor is a logical position in one buffer that stays attached to
// its surrounding text as the buffer is edited. Anchors are cheap value
// types: they record the revision they were created at and are
// re-resolved on demand by replaying the buffer's edit log. A Bias
// breaks the tie when an edit lands exactly on the anchor.
//
// # Snapshots
//
// A Snapshot is an immutable view of a buffer at one revision. Anchors
// are only resolvable and comparable under a snapshot of their own
// buffer; two anchors from different buffers must never be compared.
//
//	buf := text.NewBufferFromString("<div>x</div>")
//	rng, _ := buf.AnchorRange(1, 4) // the opening tag name
//	buf.Insert(4, "X")
//	snap := buf.Snapshot()
//	start, _ := snap.Resolve(rng.Start) // 1
//	end, _ := snap.Resolve(rng.End)     // 5
package text
