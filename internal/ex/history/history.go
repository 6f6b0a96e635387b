// Package history persists the command-line history as a JSON array on
// disk. Every accepted command line is appended; duplicates move to the
// end and the list is capped at a configured size.
package history

import (
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/exline/internal/logging"
)

// FileName is the history file created inside the configured directory.
const FileName = ".cmdline_history"

// DefaultMaxEntries caps the history when no limit is configured.
const DefaultMaxEntries = 100

// Store is the persisted command history. Persistence is best effort:
// a store that cannot read or write its file keeps working in memory
// and logs the failure. It is not safe for concurrent use.
type Store struct {
	dir     string
	max     int
	entries []string
	log     *logging.Logger
}

// New creates a store backed by dir, loading any existing history file.
// An empty dir keeps the history in memory only.
func New(dir string, max int, log *logging.Logger) *Store {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	if log == nil {
		log = logging.Nop
	}
	s := &Store{dir: dir, max: max, log: log}
	s.load()
	return s
}

// Add records one executed command line and saves the history. Empty
// lines are ignored; a duplicate of an earlier entry moves to the end
// instead of repeating.
func (s *Store) Add(entry string) {
	if entry == "" {
		return
	}
	for i, e := range s.entries {
		if e == entry {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			break
		}
	}
	s.entries = append(s.entries, entry)
	s.trim()
	s.save()
}

// Get returns the history, oldest first. The cap is re-applied in case
// the configured limit shrank since the file was written.
func (s *Store) Get() []string {
	s.trim()
	return append([]string(nil), s.entries...)
}

// Len returns the number of entries.
func (s *Store) Len() int { return len(s.entries) }

// Clear drops every entry and saves the empty history.
func (s *Store) Clear() {
	s.entries = nil
	s.save()
}

// Path returns the history file location, empty for an in-memory store.
func (s *Store) Path() string {
	if s.dir == "" {
		return ""
	}
	return filepath.Join(s.dir, FileName)
}

// load reads the history file. A file that is not a JSON array is
// corrupted: it is deleted and the store starts empty.
func (s *Store) load() {
	path := s.Path()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("history: read %s: %v", path, err)
		}
		return
	}

	parsed := gjson.ParseBytes(data)
	if !gjson.ValidBytes(data) || !parsed.IsArray() {
		s.log.Warn("history: %s is corrupted, starting fresh", path)
		if err := os.Remove(path); err != nil {
			s.log.Warn("history: remove %s: %v", path, err)
		}
		return
	}

	for _, r := range parsed.Array() {
		if r.Type == gjson.String {
			s.entries = append(s.entries, r.String())
		}
	}
	s.trim()
}

// save writes the history file, creating the directory on first use.
func (s *Store) save() {
	path := s.Path()
	if path == "" {
		return
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.log.Warn("history: create %s: %v", s.dir, err)
		return
	}

	data := []byte("[]")
	for _, e := range s.entries {
		var err error
		data, err = sjson.SetBytes(data, "-1", e)
		if err != nil {
			s.log.Warn("history: encode: %v", err)
			return
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.log.Warn("history: write %s: %v", path, err)
	}
}

// trim drops the oldest entries beyond the cap.
func (s *Store) trim() {
	if len(s.entries) > s.max {
		s.entries = append([]string(nil), s.entries[len(s.entries)-s.max:]...)
	}
}
