package editor

import "context"

// Buffer abstracts the host's line-oriented document.
type Buffer interface {
	// LineCount returns the number of lines in the document.
	LineCount() int

	// Line returns the text of line n, without a trailing newline.
	// Out-of-range lines return the empty string.
	Line(n int) string

	// Lines returns a copy of every line.
	Lines() []string

	// SetLine replaces the text of line n.
	SetLine(n int, text string) error

	// InsertLines inserts lines before index n; n == LineCount appends.
	InsertLines(n int, lines []string) error

	// RemoveLines deletes the inclusive line span [start, end].
	RemoveLines(start, end int) error

	// ReplaceAll replaces the whole document content.
	ReplaceAll(lines []string)
}

// CursorManager exposes the primary cursor.
type CursorManager interface {
	Cursor() Position
	SetCursor(pos Position)
}

// SelectionProvider exposes the active visual selections, if any.
type SelectionProvider interface {
	Selections() []Selection
}

// MarkStore holds named marks.
type MarkStore interface {
	// Mark returns the position stored under name, and whether it is set.
	Mark(name rune) (Position, bool)

	// SetMark stores a position under name, replacing any previous one.
	SetMark(name rune, pos Position)

	// Marks returns a copy of all set marks.
	Marks() map[rune]Position
}

// RegisterStore exposes the unnamed register.
type RegisterStore interface {
	Unnamed() RegisterText
	SetUnnamed(text RegisterText)
}

// EditHistory groups compound edits so they undo as a single step.
type EditHistory interface {
	BeginGroup(name string)
	EndGroup()
	CancelGroup()
}

// StatusSink receives transient user-facing messages.
type StatusSink interface {
	ShowStatus(msg string)
}

// FileStore performs host file operations for the document.
type FileStore interface {
	// Save writes the document to its backing file. When force is set
	// the host may relax permissions to complete the write.
	Save(force bool) error

	// SaveAs writes the document to path and rebinds the document to it.
	SaveAs(path string, force bool) error

	// Path returns the backing file path, empty for an unnamed document.
	Path() string

	// Modified reports whether the document has unsaved changes.
	Modified() bool
}

// Host receives editor-level requests that leave the document.
type Host interface {
	// Quit asks the host to close the editing session. Without force it
	// must refuse when unsaved changes exist.
	Quit(force bool) error
}

// Prompter solicits one line of input from the user. ok is false when
// the user cancelled, in which case text is meaningless.
type Prompter interface {
	Prompt(ctx context.Context, prefix, initial string) (text string, ok bool, err error)
}

// PrompterFunc adapts a function to the Prompter interface.
type PrompterFunc func(ctx context.Context, prefix, initial string) (string, bool, error)

// Prompt calls f.
func (f PrompterFunc) Prompt(ctx context.Context, prefix, initial string) (string, bool, error) {
	return f(ctx, prefix, initial)
}

// Context bundles the editor state a command executes against.
type Context struct {
	// Buffer provides access to the document lines.
	Buffer Buffer

	// Cursors provides the primary cursor.
	Cursors CursorManager

	// Selections provides active visual selections.
	Selections SelectionProvider

	// Marks provides named mark storage.
	Marks MarkStore

	// Registers provides the unnamed register.
	Registers RegisterStore

	// History provides undo grouping for compound edits.
	History EditHistory

	// Status receives user-facing messages.
	Status StatusSink

	// File performs save operations.
	File FileStore

	// Host performs quit operations.
	Host Host

	// Prompt solicits command-line input.
	Prompt Prompter

	// Session carries cross-command state and options.
	Session *Session
}

// New creates a context with a fresh session.
func New() *Context {
	return &Context{Session: NewSession()}
}

// WithBuffer returns the context with the buffer set.
func (ctx *Context) WithBuffer(b Buffer) *Context {
	ctx.Buffer = b
	return ctx
}

// WithCursors returns the context with the cursor manager set.
func (ctx *Context) WithCursors(c CursorManager) *Context {
	ctx.Cursors = c
	return ctx
}

// WithSelections returns the context with the selection provider set.
func (ctx *Context) WithSelections(s SelectionProvider) *Context {
	ctx.Selections = s
	return ctx
}

// WithMarks returns the context with the mark store set.
func (ctx *Context) WithMarks(m MarkStore) *Context {
	ctx.Marks = m
	return ctx
}

// WithRegisters returns the context with the register store set.
func (ctx *Context) WithRegisters(r RegisterStore) *Context {
	ctx.Registers = r
	return ctx
}

// WithHistory returns the context with the edit history set.
func (ctx *Context) WithHistory(h EditHistory) *Context {
	ctx.History = h
	return ctx
}

// WithStatus returns the context with the status sink set.
func (ctx *Context) WithStatus(s StatusSink) *Context {
	ctx.Status = s
	return ctx
}

// WithFile returns the context with the file store set.
func (ctx *Context) WithFile(f FileStore) *Context {
	ctx.File = f
	return ctx
}

// WithHost returns the context with the host set.
func (ctx *Context) WithHost(h Host) *Context {
	ctx.Host = h
	return ctx
}

// WithPrompt returns the context with the prompter set.
func (ctx *Context) WithPrompt(p Prompter) *Context {
	ctx.Prompt = p
	return ctx
}

// Validate checks that the context has the components every command needs.
func (ctx *Context) Validate() error {
	if ctx.Buffer == nil {
		return ErrMissingBuffer
	}
	if ctx.Cursors == nil {
		return ErrMissingCursors
	}
	if ctx.Session == nil {
		return ErrMissingSession
	}
	return nil
}

// CursorLine returns the current cursor line, 0 when no cursor manager
// is present.
func (ctx *Context) CursorLine() int {
	if ctx.Cursors == nil {
		return 0
	}
	return ctx.Cursors.Cursor().Line
}

// ShowStatus sends a message to the status sink, if one is present.
func (ctx *Context) ShowStatus(msg string) {
	if ctx.Status != nil {
		ctx.Status.ShowStatus(msg)
	}
}

// BeginGroup starts an undo group, if history is present.
func (ctx *Context) BeginGroup(name string) {
	if ctx.History != nil {
		ctx.History.BeginGroup(name)
	}
}

// EndGroup closes the current undo group, if history is present.
func (ctx *Context) EndGroup() {
	if ctx.History != nil {
		ctx.History.EndGroup()
	}
}

// CancelGroup abandons the current undo group, if history is present.
func (ctx *Context) CancelGroup() {
	if ctx.History != nil {
		ctx.History.CancelGroup()
	}
}
