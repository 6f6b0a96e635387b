package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dshills/exline/internal/logging"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.History.MaxEntries != 100 {
		t.Errorf("History.MaxEntries = %d, expected 100", cfg.History.MaxEntries)
	}
	if cfg.Vim.Path != "nvim" {
		t.Errorf("Vim.Path = %q, expected nvim", cfg.Vim.Path)
	}
	if cfg.Vim.Enabled {
		t.Error("Vim.Enabled should default to false")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, expected info", cfg.Log.Level)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "exline.toml", `
[history]
dir = "/tmp/hist"
max_entries = 25

[substitute]
global_default = true
ignore_case = true

[vim]
enabled = true
path = "vim"
args = ["--clean", "--not-a-term"]

[log]
level = "debug"
file = "/tmp/exline.log"

[editor]
expand_tab = true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.History.Dir != "/tmp/hist" {
		t.Errorf("History.Dir = %q, expected /tmp/hist", cfg.History.Dir)
	}
	if cfg.History.MaxEntries != 25 {
		t.Errorf("History.MaxEntries = %d, expected 25", cfg.History.MaxEntries)
	}
	if !cfg.Substitute.GlobalDefault || !cfg.Substitute.IgnoreCase {
		t.Errorf("substitute flags = %+v, expected both true", cfg.Substitute)
	}
	if !cfg.Vim.Enabled || cfg.Vim.Path != "vim" {
		t.Errorf("vim = %+v, expected enabled with path vim", cfg.Vim)
	}
	if len(cfg.Vim.Args) != 2 || cfg.Vim.Args[0] != "--clean" {
		t.Errorf("Vim.Args = %v, expected [--clean --not-a-term]", cfg.Vim.Args)
	}
	if cfg.Log.Level != "debug" || cfg.Log.File != "/tmp/exline.log" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if !cfg.Editor.ExpandTab {
		t.Error("Editor.ExpandTab should be true")
	}
}

func TestLoadYAML(t *testing.T) {
	for _, ext := range []string{"yaml", "yml"} {
		t.Run(ext, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "exline."+ext, `
history:
  max_entries: 7
substitute:
  global_default: true
vim:
  enabled: true
  path: vim
log:
  level: warn
`)

			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if cfg.History.MaxEntries != 7 {
				t.Errorf("History.MaxEntries = %d, expected 7", cfg.History.MaxEntries)
			}
			if !cfg.Substitute.GlobalDefault {
				t.Error("Substitute.GlobalDefault should be true")
			}
			if !cfg.Vim.Enabled || cfg.Vim.Path != "vim" {
				t.Errorf("vim = %+v", cfg.Vim)
			}
			if cfg.Log.Level != "warn" {
				t.Errorf("Log.Level = %q, expected warn", cfg.Log.Level)
			}
		})
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "exline.toml", "[log]\nlevel = \"debug\"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, expected debug", cfg.Log.Level)
	}
	if cfg.History.MaxEntries != 100 {
		t.Errorf("History.MaxEntries = %d, expected default 100", cfg.History.MaxEntries)
	}
	if cfg.Vim.Path != "nvim" {
		t.Errorf("Vim.Path = %q, expected default nvim", cfg.Vim.Path)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("missing file should not error, got %v", err)
	}
	if cfg.History.MaxEntries != 100 {
		t.Errorf("expected defaults, got MaxEntries = %d", cfg.History.MaxEntries)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("empty path should not error, got %v", err)
	}
	if cfg.Vim.Path != "nvim" {
		t.Errorf("expected defaults, got Vim.Path = %q", cfg.Vim.Path)
	}
}

func TestLoadUnknownExtension(t *testing.T) {
	path := writeFile(t, t.TempDir(), "exline.json", "{}")

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unsupported extension")
	}
	if !strings.Contains(err.Error(), "unsupported config format") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadBadTOML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "exline.toml", "[history\nmax_entries = 5\n")

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected parse error")
	}

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
	if pe.Path != path {
		t.Errorf("ParseError.Path = %q, expected %q", pe.Path, path)
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "exline.yaml", "history: [unclosed\n")

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("EXLINE_LOG_LEVEL", "debug")
	t.Setenv("EXLINE_LOG_FILE", "/tmp/env.log")
	t.Setenv("EXLINE_HISTORY_DIR", "/tmp/envhist")
	t.Setenv("EXLINE_HISTORY_MAX", "7")
	t.Setenv("EXLINE_VIM_ENABLED", "yes")
	t.Setenv("EXLINE_VIM_PATH", "/usr/bin/vim")
	t.Setenv("EXLINE_SUBSTITUTE_GLOBAL", "true")
	t.Setenv("EXLINE_IGNORE_CASE", "on")
	t.Setenv("EXLINE_EXPAND_TAB", "1")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Log.Level != "debug" || cfg.Log.File != "/tmp/env.log" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.History.Dir != "/tmp/envhist" || cfg.History.MaxEntries != 7 {
		t.Errorf("history = %+v", cfg.History)
	}
	if !cfg.Vim.Enabled || cfg.Vim.Path != "/usr/bin/vim" {
		t.Errorf("vim = %+v", cfg.Vim)
	}
	if !cfg.Substitute.GlobalDefault || !cfg.Substitute.IgnoreCase {
		t.Errorf("substitute = %+v", cfg.Substitute)
	}
	if !cfg.Editor.ExpandTab {
		t.Error("Editor.ExpandTab should be true")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "exline.toml", "[log]\nlevel = \"warn\"\n")
	t.Setenv("EXLINE_LOG_LEVEL", "error")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Log.Level = %q, expected env to win with error", cfg.Log.Level)
	}
}

func TestEnvBadValuesIgnored(t *testing.T) {
	t.Setenv("EXLINE_HISTORY_MAX", "many")
	t.Setenv("EXLINE_VIM_ENABLED", "maybe")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.History.MaxEntries != 100 {
		t.Errorf("History.MaxEntries = %d, expected default kept", cfg.History.MaxEntries)
	}
	if cfg.Vim.Enabled {
		t.Error("Vim.Enabled should stay false for unparseable value")
	}
}

func TestParseErrorFormat(t *testing.T) {
	tests := []struct {
		name     string
		err      ParseError
		expected string
	}{
		{
			name:     "position",
			err:      ParseError{Path: "a.toml", Line: 3, Column: 7, Message: "boom"},
			expected: "a.toml:3:7: boom",
		},
		{
			name:     "line only",
			err:      ParseError{Path: "a.toml", Line: 3, Message: "boom"},
			expected: "a.toml:3: boom",
		},
		{
			name:     "no position",
			err:      ParseError{Path: "a.toml", Message: "boom"},
			expected: "a.toml: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestWatchReload(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "exline.toml", "[log]\nlevel = \"info\"\n")

	ch := make(chan Config, 1)
	w, err := Watch(path, logging.Nop, func(c Config) {
		select {
		case ch <- c:
		default:
		}
	})
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer w.Close()

	// Give the watcher goroutine a beat to start receiving.
	time.Sleep(50 * time.Millisecond)

	writeFile(t, dir, "exline.toml", "[log]\nlevel = \"debug\"\n")

	select {
	case cfg := <-ch:
		if cfg.Log.Level != "debug" {
			t.Errorf("reloaded Log.Level = %q, expected debug", cfg.Log.Level)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reload within 3s")
	}
}

func TestWatchIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "exline.toml", "[log]\nlevel = \"info\"\n")

	ch := make(chan Config, 1)
	w, err := Watch(path, logging.Nop, func(c Config) {
		select {
		case ch <- c:
		default:
		}
	})
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer w.Close()

	time.Sleep(50 * time.Millisecond)
	writeFile(t, dir, "other.txt", "not config\n")

	select {
	case <-ch:
		t.Fatal("unrelated file should not trigger reload")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatchClose(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "exline.toml", "[log]\nlevel = \"info\"\n")

	w, err := Watch(path, logging.Nop, func(Config) {})
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}
