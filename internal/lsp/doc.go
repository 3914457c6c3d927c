// Package lsp implements a minimal Language Server Protocol client for
// the linkedEditingRange request (LSP 3.16), plus the adapter that
// turns it into a linked.Provider.
//
// The client speaks JSON-RPC 2.0 over a server process's stdio with
// Content-Length framing. Only the small slice of the protocol this
// engine needs is implemented: the initialize handshake, document
// synchronization, and textDocument/linkedEditingRange.
//
// Positions on the wire use UTF-16 code units per the LSP
// specification; PositionConverter translates them to and from the
// byte offsets the rest of the engine works in.
package lsp
