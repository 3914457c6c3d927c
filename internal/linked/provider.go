package linked

import (
	"context"

	"github.com/dshills/linkedit/internal/text"
)

// Provider supplies the spans linked to a buffer position. It is the
// only external dependency that decides what is linked; implementations
// typically ask a language server (textDocument/linkedEditingRange).
//
// LinkedRanges must be safe to call concurrently for distinct
// positions. It may legitimately return an empty or single-element
// slice (nothing linked) or an error; both degrade to "no group for
// this selection".
type Provider interface {
	LinkedRanges(ctx context.Context, id text.BufferID, pos text.ByteOffset) ([]text.AnchorRange, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, id text.BufferID, pos text.ByteOffset) ([]text.AnchorRange, error)

// LinkedRanges implements Provider.
func (f ProviderFunc) LinkedRanges(ctx context.Context, id text.BufferID, pos text.ByteOffset) ([]text.AnchorRange, error) {
	return f(ctx, id, pos)
}

// BufferSource resolves buffer IDs to live buffers. A buffer that has
// been closed since the cycle started simply reports false and is
// skipped.
type BufferSource interface {
	Buffer(id text.BufferID) (*text.Buffer, bool)
}

// SelectionSource exposes the editor's current selections.
type SelectionSource interface {
	Selections() []text.Selection
}
