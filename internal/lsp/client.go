package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("linkedit.lsp")

// Client wraps a Transport with the LSP lifecycle and document
// synchronization needed to issue textDocument/linkedEditingRange
// requests against a single language server.
type Client struct {
	transport *Transport

	mu          sync.RWMutex
	initialized bool
	supported   bool
	docs        map[DocumentURI]*openDocument

	languageID     string
	rootURI        DocumentURI
	requestTimeout time.Duration
}

// openDocument tracks the server's view of a synchronized document.
type openDocument struct {
	version int
	content string
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithLanguageID sets the language id sent in didOpen notifications.
func WithLanguageID(id string) ClientOption {
	return func(c *Client) {
		c.languageID = id
	}
}

// WithRootURI sets the workspace root announced during initialize.
func WithRootURI(uri DocumentURI) ClientOption {
	return func(c *Client) {
		c.rootURI = uri
	}
}

// WithRequestTimeout bounds individual requests.
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.requestTimeout = d
	}
}

// NewClient creates a client over the given transport. The transport
// must already be started.
func NewClient(t *Transport, opts ...ClientOption) *Client {
	c := &Client{
		transport:      t,
		docs:           make(map[DocumentURI]*openDocument),
		languageID:     "plaintext",
		requestTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}

	t.OnNotification("window/logMessage", func(method string, params json.RawMessage) {
		msg := gjson.GetBytes(params, "message")
		log.Infof("server: %s", msg.String())
	})

	return c
}

// Initialize performs the initialize/initialized handshake and records
// whether the server advertises linkedEditingRangeProvider.
func (c *Client) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}

	params := InitializeParams{
		ProcessID: os.Getpid(),
		RootURI:   c.rootURI,
		Capabilities: ClientCapabilities{
			TextDocument: TextDocumentClientCapabilities{
				LinkedEditingRange: LinkedEditingRangeClientCapabilities{},
			},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	result, err := c.transport.Call(ctx, "initialize", params)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	// linkedEditingRangeProvider may be a bool or an options object.
	capability := gjson.GetBytes(result, "capabilities.linkedEditingRangeProvider")
	c.supported = capability.Exists() && (capability.Type != gjson.False)

	if err := c.transport.Notify(ctx, "initialized", struct{}{}); err != nil {
		return fmt.Errorf("initialized: %w", err)
	}

	c.initialized = true
	return nil
}

// Supported reports whether the server advertises linked editing
// range support.
func (c *Client) Supported() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.supported
}

// DidOpen announces a document to the server.
func (c *Client) DidOpen(ctx context.Context, uri DocumentURI, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return ErrNotInitialized
	}
	if _, ok := c.docs[uri]; ok {
		return ErrDocumentAlreadyOpen
	}

	params := DidOpenTextDocumentParams{
		TextDocument: TextDocumentItem{
			URI:        uri,
			LanguageID: c.languageID,
			Version:    1,
			Text:       content,
		},
	}
	if err := c.transport.Notify(ctx, "textDocument/didOpen", params); err != nil {
		return err
	}

	c.docs[uri] = &openDocument{version: 1, content: content}
	return nil
}

// DidChange sends the full new content of an open document.
func (c *Client) DidChange(ctx context.Context, uri DocumentURI, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, ok := c.docs[uri]
	if !ok {
		return ErrDocumentNotOpen
	}
	doc.version++
	doc.content = content

	params := DidChangeTextDocumentParams{
		TextDocument: VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: TextDocumentIdentifier{URI: uri},
			Version:                doc.version,
		},
		ContentChanges: []TextDocumentContentChangeEvent{{Text: content}},
	}
	return c.transport.Notify(ctx, "textDocument/didChange", params)
}

// DidClose tells the server the document is no longer synchronized.
func (c *Client) DidClose(ctx context.Context, uri DocumentURI) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.docs[uri]; !ok {
		return ErrDocumentNotOpen
	}
	delete(c.docs, uri)

	params := DidCloseTextDocumentParams{
		TextDocument: TextDocumentIdentifier{URI: uri},
	}
	return c.transport.Notify(ctx, "textDocument/didClose", params)
}

// DocumentContent returns the last content synchronized for uri.
func (c *Client) DocumentContent(uri DocumentURI) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	doc, ok := c.docs[uri]
	if !ok {
		return "", false
	}
	return doc.content, true
}

// LinkedEditingRange requests the ranges linked to the identifier at
// pos. A null result from the server yields a nil slice and no error.
func (c *Client) LinkedEditingRange(ctx context.Context, uri DocumentURI, pos Position) ([]Range, error) {
	c.mu.RLock()
	if !c.initialized {
		c.mu.RUnlock()
		return nil, ErrNotInitialized
	}
	if !c.supported {
		c.mu.RUnlock()
		return nil, ErrNotSupported
	}
	if _, ok := c.docs[uri]; !ok {
		c.mu.RUnlock()
		return nil, ErrDocumentNotOpen
	}
	c.mu.RUnlock()

	params := LinkedEditingRangeParams{
		TextDocumentPositionParams: TextDocumentPositionParams{
			TextDocument: TextDocumentIdentifier{URI: uri},
			Position:     pos,
		},
	}

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	result, err := c.transport.Call(ctx, "textDocument/linkedEditingRange", params)
	if err != nil {
		return nil, err
	}

	return parseLinkedEditingRanges(result)
}

// Shutdown performs the shutdown/exit sequence and closes the
// transport.
func (c *Client) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	c.initialized = false
	c.docs = make(map[DocumentURI]*openDocument)
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	if _, err := c.transport.Call(ctx, "shutdown", nil); err != nil && err != ErrShutdown {
		c.transport.Close()
		return err
	}
	c.transport.Notify(ctx, "exit", nil)
	return c.transport.Close()
}

// parseLinkedEditingRanges decodes a linkedEditingRange result. The
// server may return null to signal no linked ranges at the position.
func parseLinkedEditingRanges(result json.RawMessage) ([]Range, error) {
	if len(result) == 0 {
		return nil, nil
	}

	parsed := gjson.ParseBytes(result)
	if parsed.Type == gjson.Null {
		return nil, nil
	}

	ranges := parsed.Get("ranges")
	if !ranges.IsArray() {
		return nil, ErrInvalidResponse
	}

	var out []Range
	var badRange bool
	ranges.ForEach(func(_, value gjson.Result) bool {
		start := value.Get("start")
		end := value.Get("end")
		if !start.Exists() || !end.Exists() {
			badRange = true
			return false
		}
		out = append(out, Range{
			Start: Position{
				Line:      int(start.Get("line").Int()),
				Character: int(start.Get("character").Int()),
			},
			End: Position{
				Line:      int(end.Get("line").Int()),
				Character: int(end.Get("character").Int()),
			},
		})
		return true
	})
	if badRange {
		return nil, ErrInvalidResponse
	}
	return out, nil
}
