package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "linkedit.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[refresh]
request_timeout_ms = 250
max_selections = 8

[log]
verbosity = 2
path = "/tmp/linkedit.log"

[server]
command = "vscode-html-language-server"
args = ["--stdio"]
language_id = "html"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Refresh.RequestTimeoutMS != 250 {
		t.Errorf("RequestTimeoutMS = %d, want 250", cfg.Refresh.RequestTimeoutMS)
	}
	if got := cfg.Refresh.RequestTimeout(); got != 250*time.Millisecond {
		t.Errorf("RequestTimeout() = %v, want 250ms", got)
	}
	if cfg.Refresh.MaxSelections != 8 {
		t.Errorf("MaxSelections = %d, want 8", cfg.Refresh.MaxSelections)
	}
	if cfg.Log.Verbosity != 2 || cfg.Log.Path != "/tmp/linkedit.log" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Server.Command != "vscode-html-language-server" {
		t.Errorf("Command = %q", cfg.Server.Command)
	}
	if len(cfg.Server.Args) != 1 || cfg.Server.Args[0] != "--stdio" {
		t.Errorf("Args = %v", cfg.Server.Args)
	}
}

func TestLoadPartialKeepsOtherDefaults(t *testing.T) {
	path := writeConfig(t, `
[refresh]
max_selections = 4
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Refresh.MaxSelections != 4 {
		t.Errorf("MaxSelections = %d, want 4", cfg.Refresh.MaxSelections)
	}
	if cfg.Refresh.RequestTimeoutMS != Default().Refresh.RequestTimeoutMS {
		t.Errorf("RequestTimeoutMS = %d, want default", cfg.Refresh.RequestTimeoutMS)
	}
	if cfg.Server.LanguageID != "html" {
		t.Errorf("LanguageID = %q, want html", cfg.Server.LanguageID)
	}
}

func TestLoadMalformedTOML(t *testing.T) {
	path := writeConfig(t, `[refresh`)

	cfg, err := Load(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("cfg after error = %+v, want defaults", cfg)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero timeout", "[refresh]\nrequest_timeout_ms = 0\n"},
		{"negative selections", "[refresh]\nmax_selections = -1\n"},
		{"negative verbosity", "[log]\nverbosity = -2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(path)
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, "[refresh]\nmax_selections = 4\n")

	reloaded := make(chan Config, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(cfg Config) {
			select {
			case reloaded <- cfg:
			default:
			}
		})
	}()

	// Give the watcher a moment to register before writing.
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("[refresh]\nmax_selections = 9\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Refresh.MaxSelections != 9 {
			t.Errorf("MaxSelections = %d, want 9", cfg.Refresh.MaxSelections)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("Watch() = %v, want context.Canceled", err)
	}
}

func TestWatchIgnoresInvalidRewrite(t *testing.T) {
	path := writeConfig(t, "[refresh]\nmax_selections = 4\n")

	reloads := make(chan Config, 2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, path, func(cfg Config) { reloads <- cfg })

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("[refresh"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	time.Sleep(300 * time.Millisecond)

	if err := os.WriteFile(path, []byte("[refresh]\nmax_selections = 7\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case cfg := <-reloads:
		// The malformed write must not have produced a callback; the
		// first reload seen is the valid one.
		if cfg.Refresh.MaxSelections != 7 {
			t.Errorf("MaxSelections = %d, want 7", cfg.Refresh.MaxSelections)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}
}
