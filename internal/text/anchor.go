package text

import "fmt"

// Bias resolves the ambiguity when an edit happens exactly at an
// anchor's position.
type Bias uint8

const (
	// BiasBackward keeps the anchor before text inserted at its
	// position. Range starts use it so that typing at the start of a
	// span grows the span.
	BiasBackward Bias = iota

	// BiasForward moves the anchor after text inserted at its
	// position. Range ends use it so that typing at the end of a span
	// grows the span.
	BiasForward
)

// String returns the bias name.
func (b Bias) String() string {
	switch b {
	case BiasBackward:
		return "backward"
	case BiasForward:
		return "forward"
	default:
		return "unknown"
	}
}

// Anchor is a logical position in one buffer that remains valid across
// edits to that buffer. It is an immutable value type: the position is
// re-resolved against a Snapshot rather than updated in place.
//
// Anchors are buffer-scoped. Resolving or comparing an anchor under a
// snapshot of a different buffer is a contract violation; Snapshot
// methods report it as a failed resolution rather than panicking.
type Anchor struct {
	Buffer   BufferID
	Revision RevisionID
	Offset   ByteOffset
	Bias     Bias
}

// String returns a human-readable representation of the anchor.
func (a Anchor) String() string {
	return fmt.Sprintf("Anchor(%d@r%d %s)", a.Offset, a.Revision, a.Bias)
}

// AnchorRange is a start/end anchor pair denoting a span in one buffer.
// Ranges are ordered by comparing Start under a snapshot, with End as
// the tie-breaker.
type AnchorRange struct {
	Start Anchor
	End   Anchor
}

// String returns a human-readable representation of the range.
func (r AnchorRange) String() string {
	return fmt.Sprintf("[%s:%s)", r.Start, r.End)
}

// BufferID returns the buffer both anchors belong to.
func (r AnchorRange) BufferID() BufferID {
	return r.Start.Buffer
}
