package lsp

import (
	"context"
	"fmt"
	"sync"

	"github.com/dshills/linkedit/internal/text"
)

// RangeProvider serves linked range queries from a language server.
// It satisfies the provider interface consumed by the refresh
// pipeline: byte offsets go out as UTF-16 positions, and the returned
// ranges come back as anchors in the buffer snapshot taken for the
// request.
type RangeProvider struct {
	client  *Client
	buffers BufferSource

	mu   sync.RWMutex
	uris map[text.BufferID]DocumentURI
}

// BufferSource resolves buffer ids to live buffers.
type BufferSource interface {
	Buffer(id text.BufferID) (*text.Buffer, bool)
}

// NewRangeProvider creates a provider backed by client.
func NewRangeProvider(client *Client, buffers BufferSource) *RangeProvider {
	return &RangeProvider{
		client:  client,
		buffers: buffers,
		uris:    make(map[text.BufferID]DocumentURI),
	}
}

// RegisterDocument associates a buffer with the URI the server knows
// it by.
func (p *RangeProvider) RegisterDocument(id text.BufferID, uri DocumentURI) {
	p.mu.Lock()
	p.uris[id] = uri
	p.mu.Unlock()
}

// UnregisterDocument removes the association and closes the document
// on the server.
func (p *RangeProvider) UnregisterDocument(ctx context.Context, id text.BufferID) error {
	p.mu.Lock()
	uri, ok := p.uris[id]
	delete(p.uris, id)
	p.mu.Unlock()

	if !ok {
		return nil
	}
	err := p.client.DidClose(ctx, uri)
	if err == ErrDocumentNotOpen {
		return nil
	}
	return err
}

// LinkedRanges asks the server for the ranges linked to the
// identifier at pos in the given buffer.
func (p *RangeProvider) LinkedRanges(ctx context.Context, id text.BufferID, pos text.ByteOffset) ([]text.AnchorRange, error) {
	p.mu.RLock()
	uri, ok := p.uris[id]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("buffer %s: no registered document", id)
	}

	buf, ok := p.buffers.Buffer(id)
	if !ok {
		return nil, fmt.Errorf("buffer %s: not found", id)
	}
	snap := buf.Snapshot()

	if err := p.sync(ctx, uri, snap.Text()); err != nil {
		return nil, fmt.Errorf("sync %s: %w", uri, err)
	}

	conv := NewPositionConverter(snap.Text())
	lspPos := conv.ByteOffsetToPosition(int(pos))

	ranges, err := p.client.LinkedEditingRange(ctx, uri, lspPos)
	if err != nil {
		return nil, err
	}
	if len(ranges) == 0 {
		return nil, nil
	}

	out := make([]text.AnchorRange, 0, len(ranges))
	for _, rng := range ranges {
		start, end := conv.RangeToByteOffsets(rng)
		ar, err := snap.AnchorRange(text.ByteOffset(start), text.ByteOffset(end))
		if err != nil {
			return nil, fmt.Errorf("range %d-%d: %w", start, end, err)
		}
		out = append(out, ar)
	}
	return out, nil
}

// sync brings the server's copy of uri up to date with content.
func (p *RangeProvider) sync(ctx context.Context, uri DocumentURI, content string) error {
	current, open := p.client.DocumentContent(uri)
	if !open {
		return p.client.DidOpen(ctx, uri, content)
	}
	if current != content {
		return p.client.DidChange(ctx, uri, content)
	}
	return nil
}
