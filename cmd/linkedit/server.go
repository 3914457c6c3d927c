package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/dshills/linkedit/internal/config"
	"github.com/dshills/linkedit/internal/lsp"
	"github.com/dshills/linkedit/internal/text"
)

// serverProvider bundles the LSP-backed range provider with the server
// process and client it depends on.
type serverProvider struct {
	*lsp.RangeProvider
	client *lsp.Client
	proc   *exec.Cmd
}

// startServerProvider spawns the configured language server over
// stdio, runs the initialize handshake, and registers the document so
// linked range queries go to the server instead of the built-in tag
// matcher.
func startServerProvider(ctx context.Context, cfg config.ServerConfig, timeout time.Duration, buffers bufferSet, buf *text.Buffer, docPath string) (*serverProvider, error) {
	proc := exec.Command(cfg.Command, cfg.Args...)
	stdin, err := proc.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := proc.StdoutPipe()
	if err != nil {
		return nil, err
	}
	proc.Stderr = os.Stderr

	if err := proc.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", cfg.Command, err)
	}

	transport := lsp.NewTransport(stdout, stdin, nil)
	transport.Start(ctx)

	uri := lsp.FilePathToURI(docPath)
	client := lsp.NewClient(transport,
		lsp.WithLanguageID(cfg.LanguageID),
		lsp.WithRootURI(lsp.FilePathToURI(filepath.Dir(docPath))),
		lsp.WithRequestTimeout(timeout),
	)

	if err := client.Initialize(ctx); err != nil {
		transport.Close()
		proc.Process.Kill()
		proc.Wait()
		return nil, fmt.Errorf("initialize %s: %w", cfg.Command, err)
	}
	if !client.Supported() {
		client.Shutdown(ctx)
		proc.Wait()
		return nil, fmt.Errorf("%s: %w", cfg.Command, lsp.ErrNotSupported)
	}

	provider := lsp.NewRangeProvider(client, buffers)
	provider.RegisterDocument(buf.ID(), uri)
	fmt.Printf("using %s for %s\n", cfg.Command, lsp.URIToFilePath(uri))

	return &serverProvider{RangeProvider: provider, client: client, proc: proc}, nil
}

// Close shuts the server down and reaps the process.
func (s *serverProvider) Close(ctx context.Context) {
	if err := s.client.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: server shutdown: %v\n", err)
	}
	s.proc.Wait()
}
