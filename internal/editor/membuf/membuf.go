// Package membuf provides an in-memory line document implementing the
// full editor contract. It backs the exline binary and the engine tests.
package membuf

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dshills/exline/internal/editor"
)

// Document errors.
var (
	// ErrLineOutOfRange indicates a line index outside the document.
	ErrLineOutOfRange = errors.New("membuf: line out of range")

	// ErrNoFileName indicates a save on a document with no backing file.
	ErrNoFileName = errors.New("membuf: no file name")

	// ErrUnsavedChanges indicates a quit refused due to unsaved changes.
	ErrUnsavedChanges = errors.New("membuf: unsaved changes")
)

// Document fills every editor context role except the prompter.
var (
	_ editor.Buffer            = (*Document)(nil)
	_ editor.CursorManager     = (*Document)(nil)
	_ editor.SelectionProvider = (*Document)(nil)
	_ editor.MarkStore         = (*Document)(nil)
	_ editor.RegisterStore     = (*Document)(nil)
	_ editor.EditHistory       = (*Document)(nil)
	_ editor.StatusSink        = (*Document)(nil)
	_ editor.FileStore         = (*Document)(nil)
	_ editor.Host              = (*Document)(nil)
)

// snapshot captures the restorable document state for one undo step.
type snapshot struct {
	lines  []string
	cursor editor.Position
}

// Document is a line-oriented document with grouped undo. A document
// always holds at least one line. It is not safe for concurrent use.
type Document struct {
	lines    []string
	cursor   editor.Position
	sels     []editor.Selection
	marks    map[rune]editor.Position
	unnamed  editor.RegisterText
	modified bool
	path     string

	undo       []snapshot
	pending    snapshot
	groupDepth int
	groupDirty bool

	statuses  []string
	quitAsked bool
	quitForce bool
}

// New creates a document from the given lines. An empty slice yields a
// single empty line.
func New(lines []string) *Document {
	d := &Document{marks: make(map[rune]editor.Position)}
	if len(lines) == 0 {
		d.lines = []string{""}
	} else {
		d.lines = append([]string(nil), lines...)
	}
	return d
}

// Load reads path into a new document bound to that file. A missing
// file yields an empty document still bound to the path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			d := New(nil)
			d.path = path
			return d, nil
		}
		return nil, fmt.Errorf("membuf: load %s: %w", path, err)
	}
	text := strings.TrimSuffix(string(data), "\n")
	d := New(strings.Split(text, "\n"))
	d.path = path
	return d, nil
}

// Context bundles the document into an editor context with a fresh
// session. The document fills every role except the prompter.
func (d *Document) Context() *editor.Context {
	return editor.New().
		WithBuffer(d).
		WithCursors(d).
		WithSelections(d).
		WithMarks(d).
		WithRegisters(d).
		WithHistory(d).
		WithStatus(d).
		WithFile(d).
		WithHost(d)
}

// LineCount returns the number of lines.
func (d *Document) LineCount() int { return len(d.lines) }

// Line returns the text of line n, empty when out of range.
func (d *Document) Line(n int) string {
	if n < 0 || n >= len(d.lines) {
		return ""
	}
	return d.lines[n]
}

// Lines returns a copy of every line.
func (d *Document) Lines() []string {
	return append([]string(nil), d.lines...)
}

// SetLine replaces the text of line n.
func (d *Document) SetLine(n int, text string) error {
	if n < 0 || n >= len(d.lines) {
		return fmt.Errorf("%w: %d", ErrLineOutOfRange, n)
	}
	d.checkpoint()
	d.lines[n] = text
	d.modified = true
	return nil
}

// InsertLines inserts lines before index n; n == LineCount appends.
func (d *Document) InsertLines(n int, lines []string) error {
	if n < 0 || n > len(d.lines) {
		return fmt.Errorf("%w: %d", ErrLineOutOfRange, n)
	}
	if len(lines) == 0 {
		return nil
	}
	d.checkpoint()
	rest := append([]string(nil), d.lines[n:]...)
	d.lines = append(d.lines[:n], append(append([]string(nil), lines...), rest...)...)
	d.modified = true
	return nil
}

// RemoveLines deletes the inclusive span [start, end]. Removing every
// line leaves a single empty one.
func (d *Document) RemoveLines(start, end int) error {
	if start < 0 || end >= len(d.lines) || start > end {
		return fmt.Errorf("%w: %d,%d", ErrLineOutOfRange, start, end)
	}
	d.checkpoint()
	d.lines = append(d.lines[:start], d.lines[end+1:]...)
	if len(d.lines) == 0 {
		d.lines = []string{""}
	}
	d.clampCursor()
	d.modified = true
	return nil
}

// ReplaceAll replaces the whole document content.
func (d *Document) ReplaceAll(lines []string) {
	d.checkpoint()
	if len(lines) == 0 {
		lines = []string{""}
	}
	d.lines = append([]string(nil), lines...)
	d.clampCursor()
	d.modified = true
}

// Cursor returns the primary cursor position.
func (d *Document) Cursor() editor.Position { return d.cursor }

// SetCursor moves the primary cursor, clamped to the document.
func (d *Document) SetCursor(pos editor.Position) {
	if pos.Line < 0 {
		pos.Line = 0
	}
	if pos.Line >= len(d.lines) {
		pos.Line = len(d.lines) - 1
	}
	if pos.Column < 0 {
		pos.Column = 0
	}
	if max := len(d.lines[pos.Line]); pos.Column > max {
		pos.Column = max
	}
	d.cursor = pos
}

// Selections returns the active visual selections.
func (d *Document) Selections() []editor.Selection {
	return append([]editor.Selection(nil), d.sels...)
}

// SetSelections replaces the active visual selections.
func (d *Document) SetSelections(sels []editor.Selection) {
	d.sels = append([]editor.Selection(nil), sels...)
}

// Mark returns the position stored under name.
func (d *Document) Mark(name rune) (editor.Position, bool) {
	pos, ok := d.marks[name]
	return pos, ok
}

// SetMark stores a position under name.
func (d *Document) SetMark(name rune, pos editor.Position) {
	d.marks[name] = pos
}

// Marks returns a copy of all set marks.
func (d *Document) Marks() map[rune]editor.Position {
	out := make(map[rune]editor.Position, len(d.marks))
	for k, v := range d.marks {
		out[k] = v
	}
	return out
}

// Unnamed returns the unnamed register.
func (d *Document) Unnamed() editor.RegisterText { return d.unnamed }

// SetUnnamed replaces the unnamed register.
func (d *Document) SetUnnamed(text editor.RegisterText) { d.unnamed = text }

// BeginGroup opens an undo group. Groups nest; only the outermost one
// captures a restore point.
func (d *Document) BeginGroup(name string) {
	_ = name
	if d.groupDepth == 0 {
		d.pending = d.snap()
		d.groupDirty = false
	}
	d.groupDepth++
}

// EndGroup closes the current undo group. The group becomes one undo
// step; a group with no edits leaves no step.
func (d *Document) EndGroup() {
	if d.groupDepth == 0 {
		return
	}
	d.groupDepth--
	if d.groupDepth == 0 && d.groupDirty {
		d.undo = append(d.undo, d.pending)
		d.groupDirty = false
	}
}

// CancelGroup abandons the current group and restores the state captured
// at BeginGroup.
func (d *Document) CancelGroup() {
	if d.groupDepth == 0 {
		return
	}
	d.groupDepth = 0
	if d.groupDirty {
		d.restore(d.pending)
		d.groupDirty = false
	}
}

// Undo reverts the most recent undo step. It reports whether a step was
// reverted.
func (d *Document) Undo() bool {
	if len(d.undo) == 0 {
		return false
	}
	last := d.undo[len(d.undo)-1]
	d.undo = d.undo[:len(d.undo)-1]
	d.restore(last)
	return true
}

// UndoDepth returns how many undo steps are available.
func (d *Document) UndoDepth() int { return len(d.undo) }

// ShowStatus records a status message.
func (d *Document) ShowStatus(msg string) {
	d.statuses = append(d.statuses, msg)
}

// StatusMessages returns every recorded status message.
func (d *Document) StatusMessages() []string {
	return append([]string(nil), d.statuses...)
}

// LastStatus returns the most recent status message, empty when none.
func (d *Document) LastStatus() string {
	if len(d.statuses) == 0 {
		return ""
	}
	return d.statuses[len(d.statuses)-1]
}

// Save writes the document to its backing file.
func (d *Document) Save(force bool) error {
	if d.path == "" {
		return ErrNoFileName
	}
	return d.writeTo(d.path, force)
}

// SaveAs writes the document to path and rebinds it.
func (d *Document) SaveAs(path string, force bool) error {
	if err := d.writeTo(path, force); err != nil {
		return err
	}
	d.path = path
	return nil
}

// Path returns the backing file path.
func (d *Document) Path() string { return d.path }

// SetPath rebinds the document without writing.
func (d *Document) SetPath(path string) { d.path = path }

// Modified reports whether the document has unsaved changes.
func (d *Document) Modified() bool { return d.modified }

// SetModified overrides the modified flag.
func (d *Document) SetModified(modified bool) { d.modified = modified }

// Quit records a quit request. Without force it fails when unsaved
// changes exist.
func (d *Document) Quit(force bool) error {
	if d.modified && !force {
		return ErrUnsavedChanges
	}
	d.quitAsked = true
	d.quitForce = force
	return nil
}

// QuitRequested reports whether Quit succeeded, and whether it was forced.
func (d *Document) QuitRequested() (asked, forced bool) {
	return d.quitAsked, d.quitForce
}

func (d *Document) writeTo(path string, force bool) error {
	data := []byte(strings.Join(d.lines, "\n") + "\n")
	err := os.WriteFile(path, data, 0o644)
	if err != nil && force && errors.Is(err, os.ErrPermission) {
		if chErr := os.Chmod(path, 0o644); chErr == nil {
			err = os.WriteFile(path, data, 0o644)
		}
	}
	if err != nil {
		return fmt.Errorf("membuf: write %s: %w", path, err)
	}
	d.modified = false
	return nil
}

// checkpoint records a restore point for the edit about to happen.
// Inside a group the group's own restore point covers it.
func (d *Document) checkpoint() {
	if d.groupDepth > 0 {
		d.groupDirty = true
		return
	}
	d.undo = append(d.undo, d.snap())
}

func (d *Document) snap() snapshot {
	return snapshot{
		lines:  append([]string(nil), d.lines...),
		cursor: d.cursor,
	}
}

func (d *Document) restore(s snapshot) {
	d.lines = append([]string(nil), s.lines...)
	d.cursor = s.cursor
	d.clampCursor()
}

func (d *Document) clampCursor() {
	if d.cursor.Line >= len(d.lines) {
		d.cursor.Line = len(d.lines) - 1
	}
	if d.cursor.Line < 0 {
		d.cursor.Line = 0
	}
	if max := len(d.lines[d.cursor.Line]); d.cursor.Column > max {
		d.cursor.Column = max
	}
}
