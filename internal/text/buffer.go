package text

import (
	"errors"
	"sync"
)

// Errors returned by buffer operations.
var (
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrRangeInvalid     = errors.New("invalid range")
)

// editRecord describes one applied edit: the span it replaced and the
// length of the replacement. The revision is the buffer revision the
// edit produced.
type editRecord struct {
	revision RevisionID
	start    ByteOffset
	oldLen   ByteOffset
	newLen   ByteOffset
}

// Buffer holds one piece of text and the edit log needed to re-resolve
// anchors created against earlier revisions. All methods are
// thread-safe.
//
// The edit log is append-only for the lifetime of the buffer, which
// lets snapshots share its backing array without copying.
type Buffer struct {
	mu       sync.RWMutex
	id       BufferID
	content  string
	revision RevisionID
	edits    []editRecord
}

// NewBuffer creates a new empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{
		id:       NewBufferID(),
		revision: NewRevisionID(),
	}
}

// NewBufferFromString creates a buffer with initial content.
func NewBufferFromString(s string) *Buffer {
	b := NewBuffer()
	b.content = s
	return b
}

// ID returns the buffer's session-unique identifier.
func (b *Buffer) ID() BufferID {
	return b.id
}

// Text returns the full buffer content.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.content
}

// Len returns the buffer length in bytes.
func (b *Buffer) Len() ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return ByteOffset(len(b.content))
}

// Revision returns the current revision ID.
func (b *Buffer) Revision() RevisionID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.revision
}

// Insert inserts text at the given offset.
func (b *Buffer) Insert(offset ByteOffset, text string) error {
	return b.Replace(offset, offset, text)
}

// Delete removes text in the given range.
func (b *Buffer) Delete(start, end ByteOffset) error {
	return b.Replace(start, end, "")
}

// Replace replaces text in [start, end) with new text and records the
// edit so existing anchors stay resolvable.
func (b *Buffer) Replace(start, end ByteOffset, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if start < 0 || start > end || end > ByteOffset(len(b.content)) {
		return ErrRangeInvalid
	}

	b.content = b.content[:start] + text + b.content[end:]
	b.revision = NewRevisionID()
	b.edits = append(b.edits, editRecord{
		revision: b.revision,
		start:    start,
		oldLen:   end - start,
		newLen:   ByteOffset(len(text)),
	})

	return nil
}

// Anchor creates an anchor at the given offset against the current
// revision.
func (b *Buffer) Anchor(offset ByteOffset, bias Bias) (Anchor, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if offset < 0 || offset > ByteOffset(len(b.content)) {
		return Anchor{}, ErrOffsetOutOfRange
	}

	return Anchor{
		Buffer:   b.id,
		Revision: b.revision,
		Offset:   offset,
		Bias:     bias,
	}, nil
}

// AnchorRange creates an anchor range over [start, end): a
// backward-biased start and a forward-biased end, so edits at either
// boundary grow the span.
func (b *Buffer) AnchorRange(start, end ByteOffset) (AnchorRange, error) {
	if start > end {
		return AnchorRange{}, ErrRangeInvalid
	}

	s, err := b.Anchor(start, BiasBackward)
	if err != nil {
		return AnchorRange{}, err
	}
	e, err := b.Anchor(end, BiasForward)
	if err != nil {
		return AnchorRange{}, err
	}

	return AnchorRange{Start: s, End: e}, nil
}

// Snapshot returns an immutable view of the current buffer state.
// Safe for concurrent use from other goroutines.
func (b *Buffer) Snapshot() *Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return &Snapshot{
		buffer:   b.id,
		content:  b.content, // strings are immutable, safe to share
		revision: b.revision,
		edits:    b.edits[:len(b.edits):len(b.edits)],
	}
}
