// Package config loads exline configuration from TOML or YAML files,
// with environment variable overrides and sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds all exline settings.
type Config struct {
	History    HistoryConfig    `toml:"history" yaml:"history"`
	Substitute SubstituteConfig `toml:"substitute" yaml:"substitute"`
	Vim        VimConfig        `toml:"vim" yaml:"vim"`
	Log        LogConfig        `toml:"log" yaml:"log"`
	Editor     EditorConfig     `toml:"editor" yaml:"editor"`
}

// HistoryConfig controls command history persistence.
type HistoryConfig struct {
	// Dir is the directory holding the history file. Empty keeps
	// history in memory only.
	Dir string `toml:"dir" yaml:"dir"`
	// MaxEntries caps the number of retained commands.
	MaxEntries int `toml:"max_entries" yaml:"max_entries"`
}

// SubstituteConfig holds substitution defaults.
type SubstituteConfig struct {
	// GlobalDefault makes :s replace all matches per line by default;
	// the g flag then inverts back to first-match.
	GlobalDefault bool `toml:"global_default" yaml:"global_default"`
	// IgnoreCase makes patterns case-insensitive.
	IgnoreCase bool `toml:"ignore_case" yaml:"ignore_case"`
}

// VimConfig controls the external Vim backend.
type VimConfig struct {
	Enabled bool     `toml:"enabled" yaml:"enabled"`
	Path    string   `toml:"path" yaml:"path"`
	Args    []string `toml:"args" yaml:"args"`
}

// LogConfig controls logging output.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" yaml:"level"`
	// File receives log output when set; empty logs to stderr.
	File string `toml:"file" yaml:"file"`
}

// EditorConfig holds buffer editing defaults.
type EditorConfig struct {
	ExpandTab bool `toml:"expand_tab" yaml:"expand_tab"`
}

// Default returns the built-in configuration.
func Default() Config {
	cfg := Config{}
	cfg.History.Dir = defaultHistoryDir()
	cfg.History.MaxEntries = 100
	cfg.Vim.Path = "nvim"
	cfg.Vim.Args = []string{"--embed", "--headless"}
	cfg.Log.Level = "info"
	return cfg
}

// defaultHistoryDir resolves the per-user exline directory. Empty when
// no user config dir is available, which keeps history in memory.
func defaultHistoryDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "exline")
}

// Load reads configuration from path, chosen by extension (.toml,
// .yaml, .yml). A missing file is not an error: defaults apply. An
// empty path skips the file entirely. EXLINE_* environment variables
// override whatever the file set.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := unmarshal(path, data, &cfg); err != nil {
				return cfg, err
			}
		case os.IsNotExist(err):
			// File doesn't exist, not an error.
		default:
			return cfg, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// unmarshal parses data into cfg based on the file extension.
func unmarshal(path string, data []byte, cfg *Config) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		return parseTOML(path, data, cfg)
	case ".yaml", ".yml":
		return parseYAML(path, data, cfg)
	default:
		return fmt.Errorf("unsupported config format %q (want .toml, .yaml or .yml)", ext)
	}
}

// ParseError reports a malformed configuration file.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// envVars maps EXLINE_* environment variables onto config fields.
// Unset variables leave the field alone; unparseable numeric or
// boolean values are ignored rather than failing the load.
var envVars = []struct {
	name  string
	apply func(*Config, string)
}{
	{"EXLINE_LOG_LEVEL", func(c *Config, v string) { c.Log.Level = v }},
	{"EXLINE_LOG_FILE", func(c *Config, v string) { c.Log.File = v }},
	{"EXLINE_HISTORY_DIR", func(c *Config, v string) { c.History.Dir = v }},
	{"EXLINE_HISTORY_MAX", func(c *Config, v string) {
		if n, err := strconv.Atoi(v); err == nil {
			c.History.MaxEntries = n
		}
	}},
	{"EXLINE_VIM_ENABLED", func(c *Config, v string) { setBool(&c.Vim.Enabled, v) }},
	{"EXLINE_VIM_PATH", func(c *Config, v string) { c.Vim.Path = v }},
	{"EXLINE_SUBSTITUTE_GLOBAL", func(c *Config, v string) { setBool(&c.Substitute.GlobalDefault, v) }},
	{"EXLINE_IGNORE_CASE", func(c *Config, v string) { setBool(&c.Substitute.IgnoreCase, v) }},
	{"EXLINE_EXPAND_TAB", func(c *Config, v string) { setBool(&c.Editor.ExpandTab, v) }},
}

func applyEnv(cfg *Config) {
	for _, ev := range envVars {
		if val, ok := os.LookupEnv(ev.name); ok {
			ev.apply(cfg, val)
		}
	}
}

// setBool parses v into *dst, accepting the usual spellings. Anything
// else leaves dst unchanged.
func setBool(dst *bool, v string) {
	switch strings.ToLower(v) {
	case "true", "yes", "on", "1":
		*dst = true
	case "false", "no", "off", "0":
		*dst = false
	}
}
