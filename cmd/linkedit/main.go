// Command linkedit demonstrates the linked editing range engine: it
// indexes the tag pairs around the cursor, propagates a rename across
// one group, and refreshes the index against the edited buffer.
// Linked ranges come from the language server named in the config, or
// from a built-in HTML tag matcher when none is configured.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/tliron/commonlog"

	"github.com/dshills/linkedit/internal/config"
	"github.com/dshills/linkedit/internal/linked"
	"github.com/dshills/linkedit/internal/text"

	_ "github.com/tliron/commonlog/simple"
)

// Version information (set via ldflags during build).
var version = "dev"

const sampleDocument = "<div>\n  <span>hello</span>\n</div>\n"

type options struct {
	ConfigPath string
	FilePath   string
	RenameTo   string
	Verbose    bool
	Watch      bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	verbosity := cfg.Log.Verbosity
	if opts.Verbose {
		verbosity = 2
	}
	var logPath *string
	if cfg.Log.Path != "" {
		logPath = &cfg.Log.Path
	}
	commonlog.Configure(verbosity, logPath)

	content := sampleDocument
	docPath := opts.FilePath
	if docPath != "" {
		data, err := os.ReadFile(docPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		content = string(data)
	} else {
		// A synthetic path so the document has a URI in server mode.
		docPath = filepath.Join(os.TempDir(), "linkedit-sample.html")
	}

	buf := text.NewBufferFromString(content)
	buffers := bufferSet{buf.ID(): buf}

	spans := scanTags(content)
	if len(spans) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no tags found in document")
		return 1
	}
	cursor := spans[0].start

	selections := &cursorSource{}
	selections.moveTo(buf.ID(), cursor)

	var provider linked.Provider = &tagPairProvider{buffers: buffers}
	if cfg.Server.Command != "" {
		srv, err := startServerProvider(context.Background(), cfg.Server,
			cfg.Refresh.RequestTimeout(), buffers, buf, docPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		defer srv.Close(context.Background())
		provider = srv
	}

	refresher := linked.NewRefresher(provider, buffers, selections,
		linked.WithMaxSelections(cfg.Refresh.MaxSelections))
	refresher.OnChange(func() {
		fmt.Println("index updated")
	})

	refreshOnce := func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Refresh.RequestTimeout())
		defer cancel()
		refresher.Refresh(ctx)
	}

	refreshOnce()
	printGroups(refresher.Index(), buffers)

	// Propagate a rename through the group under the cursor.
	snap := buf.Snapshot()
	query, err := snap.AnchorRange(cursor, cursor)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	group, ok := refresher.Index().Lookup(buf.ID(), query, snap)
	if !ok {
		fmt.Println("no linked group at cursor")
		return 0
	}

	fmt.Printf("renaming group at offset %d to %q\n", cursor, opts.RenameTo)
	if err := renameGroup(buf, group, opts.RenameTo); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Print(buf.Text())

	// The cursor tracks the primary range through the edit.
	after := buf.Snapshot()
	newStart, ok := after.Resolve(group.Primary.Start)
	if !ok {
		fmt.Fprintln(os.Stderr, "Error: cursor anchor lost after rename")
		return 1
	}
	selections.moveTo(buf.ID(), newStart)

	refreshOnce()
	printGroups(refresher.Index(), buffers)

	if opts.Watch {
		if opts.ConfigPath == "" {
			fmt.Fprintln(os.Stderr, "Error: -watch requires -config")
			return 1
		}
		fmt.Printf("watching %s; edit it to re-run, interrupt to exit\n", opts.ConfigPath)

		wctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err := config.Watch(wctx, opts.ConfigPath, func(next config.Config) {
			cfg = next
			refreshOnce()
			printGroups(refresher.Index(), buffers)
		})
		if err != nil && err != context.Canceled {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	return 0
}

// renameGroup replaces every range in the group with name, rightmost
// first so earlier offsets stay valid while editing.
func renameGroup(buf *text.Buffer, group linked.Group, name string) error {
	snap := buf.Snapshot()

	type span struct{ start, end text.ByteOffset }
	spans := make([]span, 0, 1+len(group.Siblings))
	for _, ar := range append([]text.AnchorRange{group.Primary}, group.Siblings...) {
		start, ok := snap.Resolve(ar.Start)
		if !ok {
			return fmt.Errorf("range start did not resolve")
		}
		end, ok := snap.Resolve(ar.End)
		if !ok {
			return fmt.Errorf("range end did not resolve")
		}
		spans = append(spans, span{start, end})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start > spans[j].start })

	for _, s := range spans {
		if err := buf.Replace(s.start, s.end, name); err != nil {
			return err
		}
	}
	return nil
}

func printGroups(index *linked.Index, buffers bufferSet) {
	for id, buf := range buffers {
		groups := index.Groups(id)
		if len(groups) == 0 {
			continue
		}
		snap := buf.Snapshot()
		fmt.Printf("buffer %s: %d linked group(s)\n", id, len(groups))
		for i, g := range groups {
			start, ok1 := snap.Resolve(g.Primary.Start)
			end, ok2 := snap.Resolve(g.Primary.End)
			if !ok1 || !ok2 {
				continue
			}
			fmt.Printf("  %d: %q [%d,%d) with %d sibling(s)\n",
				i, snap.Text()[start:end], start, end, len(g.Siblings))
		}
	}
}

// bufferSet is the demo's single-process buffer registry.
type bufferSet map[text.BufferID]*text.Buffer

func (s bufferSet) Buffer(id text.BufferID) (*text.Buffer, bool) {
	b, ok := s[id]
	return b, ok
}

// cursorSource holds the demo's one cursor.
type cursorSource struct {
	sels []text.Selection
}

func (c *cursorSource) Selections() []text.Selection { return c.sels }

func (c *cursorSource) moveTo(id text.BufferID, off text.ByteOffset) {
	pos := text.Position{Buffer: id, Offset: off}
	c.sels = []text.Selection{{Head: pos, Tail: pos}}
}

func parseFlags() options {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.FilePath, "file", "", "Document to index (defaults to a built-in sample)")
	flag.StringVar(&opts.RenameTo, "rename", "section", "Tag name the demo renames the cursor group to")
	flag.BoolVar(&opts.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&opts.Watch, "watch", false, "Keep running and re-refresh when the config file changes")
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "linkedit - linked editing range demo\n\n")
		fmt.Fprintf(os.Stderr, "Usage: linkedit [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("linkedit %s\n", version)
		os.Exit(0)
	}

	return opts
}
