package text

// Snapshot provides a read-only view of a buffer at a specific
// revision. It is safe for concurrent access and will not change even
// if the original buffer is modified.
//
// A snapshot is the required context for working with anchors: anchors
// only have a concrete offset relative to one view of the buffer.
type Snapshot struct {
	buffer   BufferID
	content  string
	revision RevisionID
	edits    []editRecord
}

// BufferID returns the identity of the snapshotted buffer.
func (s *Snapshot) BufferID() BufferID {
	return s.buffer
}

// Revision returns the revision this snapshot was taken at.
func (s *Snapshot) Revision() RevisionID {
	return s.revision
}

// Text returns the full snapshot content.
func (s *Snapshot) Text() string {
	return s.content
}

// Len returns the snapshot length in bytes.
func (s *Snapshot) Len() ByteOffset {
	return ByteOffset(len(s.content))
}

// Anchor creates an anchor at the given offset against this snapshot's
// revision.
func (s *Snapshot) Anchor(offset ByteOffset, bias Bias) (Anchor, error) {
	if offset < 0 || offset > ByteOffset(len(s.content)) {
		return Anchor{}, ErrOffsetOutOfRange
	}

	return Anchor{
		Buffer:   s.buffer,
		Revision: s.revision,
		Offset:   offset,
		Bias:     bias,
	}, nil
}

// AnchorRange creates an anchor range over [start, end) against this
// snapshot's revision, with a backward-biased start and forward-biased
// end.
func (s *Snapshot) AnchorRange(start, end ByteOffset) (AnchorRange, error) {
	if start > end {
		return AnchorRange{}, ErrRangeInvalid
	}

	sa, err := s.Anchor(start, BiasBackward)
	if err != nil {
		return AnchorRange{}, err
	}
	ea, err := s.Anchor(end, BiasForward)
	if err != nil {
		return AnchorRange{}, err
	}

	return AnchorRange{Start: sa, End: ea}, nil
}

// Resolve returns the anchor's byte offset under this snapshot.
// It reports false when the anchor belongs to a different buffer or
// was created after the snapshot was taken; both are handled as a
// graceful negative, not an error.
func (s *Snapshot) Resolve(a Anchor) (ByteOffset, bool) {
	if a.Buffer != s.buffer || a.Revision > s.revision {
		return 0, false
	}

	off := a.Offset
	for _, e := range s.edits {
		if e.revision <= a.Revision {
			continue
		}
		if e.revision > s.revision {
			break
		}
		off = adjustOffset(off, e, a.Bias)
	}

	if off < 0 {
		off = 0
	}
	if off > ByteOffset(len(s.content)) {
		off = ByteOffset(len(s.content))
	}
	return off, true
}

// adjustOffset maps an offset across one edit.
func adjustOffset(off ByteOffset, e editRecord, bias Bias) ByteOffset {
	end := e.start + e.oldLen
	delta := e.newLen - e.oldLen

	switch {
	case off < e.start:
		// Edit strictly after the anchor.
		return off
	case off > end:
		// Edit strictly before the anchor.
		return off + delta
	case e.oldLen == 0:
		// Insertion exactly at the anchor; bias decides the side.
		if bias == BiasForward {
			return off + e.newLen
		}
		return off
	case off == e.start:
		// Replacement begins at the anchor; replaced text is after it.
		return off
	case off == end:
		// Replacement ends at the anchor; replaced text is before it.
		return off + delta
	default:
		// Anchor inside the replaced span; collapse to the edge the
		// bias points away from.
		if bias == BiasForward {
			return e.start + e.newLen
		}
		return e.start
	}
}

// Compare orders two anchors of this snapshot's buffer.
// It returns -1, 0, or 1. Anchors that cannot be resolved (wrong
// buffer, or newer than the snapshot) fall back to their recorded
// offset clamped to the snapshot bounds, keeping the comparator usable
// on stale input.
func (s *Snapshot) Compare(a, b Anchor) int {
	ao := s.resolveOrClamp(a)
	bo := s.resolveOrClamp(b)

	switch {
	case ao < bo:
		return -1
	case ao > bo:
		return 1
	default:
		return 0
	}
}

// CompareRanges orders two anchor ranges by start, with end as the
// tie-breaker.
func (s *Snapshot) CompareRanges(a, b AnchorRange) int {
	if c := s.Compare(a.Start, b.Start); c != 0 {
		return c
	}
	return s.Compare(a.End, b.End)
}

func (s *Snapshot) resolveOrClamp(a Anchor) ByteOffset {
	if off, ok := s.Resolve(a); ok {
		return off
	}
	off := a.Offset
	if off < 0 {
		off = 0
	}
	if off > ByteOffset(len(s.content)) {
		off = ByteOffset(len(s.content))
	}
	return off
}
