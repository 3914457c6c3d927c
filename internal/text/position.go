package text

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// ByteOffset represents a byte position in a buffer.
type ByteOffset = int64

// RevisionID uniquely identifies a buffer revision.
// Each modification to a buffer creates a new revision. IDs are
// monotonically increasing across the whole session, so revisions of
// one buffer are ordered by comparing IDs.
type RevisionID uint64

// revisionCounter is used to generate unique revision IDs.
var revisionCounter uint64

// NewRevisionID generates a new unique revision ID.
// This is thread-safe using atomic operations.
func NewRevisionID() RevisionID {
	return RevisionID(atomic.AddUint64(&revisionCounter, 1))
}

// BufferID is an opaque identifier of a text buffer, unique for the
// lifetime of the editing session.
type BufferID string

// NewBufferID generates a new unique buffer ID.
func NewBufferID() BufferID {
	return BufferID(uuid.New().String())
}

// Position is a buffer-qualified byte offset, as delivered by the
// editor's selection source.
type Position struct {
	Buffer BufferID
	Offset ByteOffset
}

// Selection is one editor selection. Head is the side the cursor is on;
// Tail is where the selection started. Head and Tail may resolve to
// different buffers when the selection spans a multi-buffer view.
type Selection struct {
	Head Position
	Tail Position
}

// IsEmpty returns true if the selection has no extent (just a cursor).
func (s Selection) IsEmpty() bool {
	return s.Head == s.Tail
}

// SingleBuffer returns true if head and tail resolve to the same buffer.
func (s Selection) SingleBuffer() bool {
	return s.Head.Buffer == s.Tail.Buffer
}

// Start returns the lower bound of the selection.
// Only meaningful for single-buffer selections.
func (s Selection) Start() ByteOffset {
	if s.Head.Offset <= s.Tail.Offset {
		return s.Head.Offset
	}
	return s.Tail.Offset
}

// End returns the upper bound of the selection.
// Only meaningful for single-buffer selections.
func (s Selection) End() ByteOffset {
	if s.Head.Offset >= s.Tail.Offset {
		return s.Head.Offset
	}
	return s.Tail.Offset
}
