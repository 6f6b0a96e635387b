package excmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/exline/internal/editor"
	"github.com/dshills/exline/internal/ex/resolve"
	"github.com/dshills/exline/internal/ex/token"
)

// Delete removes a line span into the unnamed register, linewise.
type Delete struct {
	base
}

func newDelete(bang bool, tail string) (Command, error) {
	if err := rejectTail("delete", tail); err != nil {
		return nil, err
	}
	return &Delete{base{name: "delete", bang: bang}}, nil
}

// Execute deletes the cursor line.
func (c *Delete) Execute(ctx *editor.Context) (string, error) {
	line := ctx.CursorLine()
	return c.ExecuteRange(ctx, line, line)
}

// ExecuteRange deletes [start, end] and leaves the cursor on the line
// that took the span's place.
func (c *Delete) ExecuteRange(ctx *editor.Context, start, end int) (string, error) {
	start, end, err := clampSpan(start, end, ctx.Buffer.LineCount())
	if err != nil {
		return "", err
	}

	lines := spanText(ctx.Buffer, start, end)
	ctx.BeginGroup("delete")
	if err := ctx.Buffer.RemoveLines(start, end); err != nil {
		ctx.CancelGroup()
		return "", err
	}
	ctx.EndGroup()

	yankLines(ctx, lines)
	moveCursorTo(ctx, start, ctx.Buffer.LineCount())

	if n := end - start + 1; n > 2 {
		return fmt.Sprintf("%d fewer lines", n), nil
	}
	return "", nil
}

// Yank copies a line span into the unnamed register without changing
// the document.
type Yank struct {
	base
}

func newYank(bang bool, tail string) (Command, error) {
	if err := rejectTail("yank", tail); err != nil {
		return nil, err
	}
	return &Yank{base{name: "yank", bang: bang}}, nil
}

// Execute yanks the cursor line.
func (c *Yank) Execute(ctx *editor.Context) (string, error) {
	line := ctx.CursorLine()
	return c.ExecuteRange(ctx, line, line)
}

// ExecuteRange yanks [start, end].
func (c *Yank) ExecuteRange(ctx *editor.Context, start, end int) (string, error) {
	start, end, err := clampSpan(start, end, ctx.Buffer.LineCount())
	if err != nil {
		return "", err
	}
	yankLines(ctx, spanText(ctx.Buffer, start, end))
	if n := end - start + 1; n > 2 {
		return fmt.Sprintf("%d lines yanked", n), nil
	}
	return "", nil
}

// Put inserts the unnamed register below the addressed line. Register
// content pastes as whole lines regardless of how it was captured.
type Put struct {
	base
}

func newPut(bang bool, tail string) (Command, error) {
	if err := rejectTail("put", tail); err != nil {
		return nil, err
	}
	return &Put{base{name: "put", bang: bang}}, nil
}

// Execute puts below the cursor line.
func (c *Put) Execute(ctx *editor.Context) (string, error) {
	line := ctx.CursorLine()
	return c.ExecuteRange(ctx, line, line)
}

// ExecuteRange puts below the last addressed line.
func (c *Put) ExecuteRange(ctx *editor.Context, start, end int) (string, error) {
	if ctx.Registers == nil {
		return "", errors.New("put: no registers")
	}
	reg := ctx.Registers.Unnamed()
	if reg.Text == "" {
		return "", errors.New(`nothing in register "`)
	}

	lines := registerLines(reg.Text)
	at := end + 1
	if count := ctx.Buffer.LineCount(); at > count {
		at = count
	}
	if at < 0 {
		at = 0
	}

	ctx.BeginGroup("put")
	if err := ctx.Buffer.InsertLines(at, lines); err != nil {
		ctx.CancelGroup()
		return "", err
	}
	ctx.EndGroup()

	moveCursorTo(ctx, at+len(lines)-1, ctx.Buffer.LineCount())
	return "", nil
}

// Copy duplicates a line span to after a destination address.
type Copy struct {
	base
	dest []token.Token
}

func newCopy(bang bool, tail string) (Command, error) {
	dest, err := destTokens("copy", tail)
	if err != nil {
		return nil, err
	}
	return &Copy{base: base{name: "copy", bang: bang}, dest: dest}, nil
}

// Execute copies the cursor line.
func (c *Copy) Execute(ctx *editor.Context) (string, error) {
	line := ctx.CursorLine()
	return c.ExecuteRange(ctx, line, line)
}

// ExecuteRange copies [start, end] to after the destination line and
// moves the cursor to the last copied line.
func (c *Copy) ExecuteRange(ctx *editor.Context, start, end int) (string, error) {
	start, end, err := clampSpan(start, end, ctx.Buffer.LineCount())
	if err != nil {
		return "", err
	}
	dest, err := resolve.Dest(c.dest, ctx)
	if err != nil {
		return "", err
	}

	lines := spanText(ctx.Buffer, start, end)
	at := dest + 1
	if count := ctx.Buffer.LineCount(); at > count {
		at = count
	}
	if at < 0 {
		at = 0
	}

	ctx.BeginGroup("copy")
	if err := ctx.Buffer.InsertLines(at, lines); err != nil {
		ctx.CancelGroup()
		return "", err
	}
	ctx.EndGroup()

	moveCursorTo(ctx, at+len(lines)-1, ctx.Buffer.LineCount())
	if n := len(lines); n > 2 {
		return fmt.Sprintf("%d more lines", n), nil
	}
	return "", nil
}

// Move relocates a line span to after a destination address. The
// destination must lie outside the span.
type Move struct {
	base
	dest []token.Token
}

func newMove(bang bool, tail string) (Command, error) {
	dest, err := destTokens("move", tail)
	if err != nil {
		return nil, err
	}
	return &Move{base: base{name: "move", bang: bang}, dest: dest}, nil
}

// Execute moves the cursor line.
func (c *Move) Execute(ctx *editor.Context) (string, error) {
	line := ctx.CursorLine()
	return c.ExecuteRange(ctx, line, line)
}

// ExecuteRange moves [start, end] to after the destination line. Both
// halves of the move land in one undo group.
func (c *Move) ExecuteRange(ctx *editor.Context, start, end int) (string, error) {
	start, end, err := clampSpan(start, end, ctx.Buffer.LineCount())
	if err != nil {
		return "", err
	}
	dest, err := resolve.Dest(c.dest, ctx)
	if err != nil {
		return "", err
	}

	// Destinations touching the span edges leave the order unchanged.
	if dest == start-1 || dest == end {
		moveCursorTo(ctx, end, ctx.Buffer.LineCount())
		return "", nil
	}
	if dest >= start && dest < end {
		return "", errors.New("move lines into themselves")
	}

	lines := spanText(ctx.Buffer, start, end)
	n := len(lines)
	at := dest + 1
	if dest > end {
		// Removal shifts everything below the span up.
		at -= n
	}

	ctx.BeginGroup("move")
	if err := ctx.Buffer.RemoveLines(start, end); err != nil {
		ctx.CancelGroup()
		return "", err
	}
	if count := ctx.Buffer.LineCount(); at > count {
		at = count
	}
	if at < 0 {
		at = 0
	}
	if err := ctx.Buffer.InsertLines(at, lines); err != nil {
		ctx.CancelGroup()
		return "", err
	}
	ctx.EndGroup()

	moveCursorTo(ctx, at+n-1, ctx.Buffer.LineCount())
	if n > 2 {
		return fmt.Sprintf("%d lines moved", n), nil
	}
	return "", nil
}

// Join merges a line span into one line, collapsing the leading
// whitespace of every joined line to a single space. A single addressed
// line joins with the line below it.
type Join struct {
	base
}

func newJoin(bang bool, tail string) (Command, error) {
	if err := rejectTail("join", tail); err != nil {
		return nil, err
	}
	return &Join{base{name: "join", bang: bang}}, nil
}

// Execute joins the cursor line with the next.
func (c *Join) Execute(ctx *editor.Context) (string, error) {
	line := ctx.CursorLine()
	return c.ExecuteRange(ctx, line, line)
}

// ExecuteRange joins [start, end] into line start.
func (c *Join) ExecuteRange(ctx *editor.Context, start, end int) (string, error) {
	count := ctx.Buffer.LineCount()
	start, end, err := clampSpan(start, end, count)
	if err != nil {
		return "", err
	}
	if start == end {
		end = start + 1
	}
	if end >= count {
		return "", ErrInvalidRange
	}

	joined := joinLines(spanText(ctx.Buffer, start, end))
	ctx.BeginGroup("join")
	if err := ctx.Buffer.SetLine(start, joined); err != nil {
		ctx.CancelGroup()
		return "", err
	}
	if err := ctx.Buffer.RemoveLines(start+1, end); err != nil {
		ctx.CancelGroup()
		return "", err
	}
	ctx.EndGroup()

	moveCursorTo(ctx, start, ctx.Buffer.LineCount())
	return "", nil
}

// Print echoes a line span and moves the cursor to the last printed
// line.
type Print struct {
	base
}

func newPrint(bang bool, tail string) (Command, error) {
	if err := rejectTail("print", tail); err != nil {
		return nil, err
	}
	return &Print{base{name: "print", bang: bang}}, nil
}

// Execute prints the cursor line.
func (c *Print) Execute(ctx *editor.Context) (string, error) {
	line := ctx.CursorLine()
	return c.ExecuteRange(ctx, line, line)
}

// ExecuteRange prints [start, end].
func (c *Print) ExecuteRange(ctx *editor.Context, start, end int) (string, error) {
	start, end, err := clampSpan(start, end, ctx.Buffer.LineCount())
	if err != nil {
		return "", err
	}
	moveCursorTo(ctx, end, ctx.Buffer.LineCount())
	return strings.Join(spanText(ctx.Buffer, start, end), "\n"), nil
}

// destTokens parses an argument that must be a single destination
// address.
func destTokens(name, tail string) ([]token.Token, error) {
	toks, rest, err := token.Scan(strings.TrimSpace(tail))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(rest) != "" {
		return nil, fmt.Errorf("%w: %s argument %q", ErrUnsupported, name, strings.TrimSpace(rest))
	}
	if len(toks) == 0 {
		return nil, fmt.Errorf("%s: destination address required", name)
	}
	for _, tk := range toks {
		if tk.Kind == token.KindComma {
			return nil, fmt.Errorf("%s: destination is not a single address", name)
		}
	}
	return toks, nil
}

// yankLines stores lines in the unnamed register, linewise.
func yankLines(ctx *editor.Context, lines []string) {
	if ctx.Registers == nil {
		return
	}
	ctx.Registers.SetUnnamed(editor.RegisterText{
		Text: strings.Join(lines, "\n") + "\n",
		Mode: editor.Linewise,
	})
}

// registerLines splits register content into lines. The trailing
// newline of linewise content does not add an empty line.
func registerLines(text string) []string {
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// moveCursorTo places the cursor at the start of line, bounded to lines
// that exist.
func moveCursorTo(ctx *editor.Context, line, count int) {
	if ctx.Cursors == nil {
		return
	}
	if line > count-1 {
		line = count - 1
	}
	if line < 0 {
		line = 0
	}
	ctx.Cursors.SetCursor(editor.Position{Line: line})
}

// joinLines concatenates lines with single spaces. The leading
// whitespace of joined lines is dropped; blank lines contribute
// nothing.
func joinLines(lines []string) string {
	var b strings.Builder
	b.WriteString(lines[0])
	for _, l := range lines[1:] {
		t := strings.TrimLeft(l, " \t")
		if t == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(t)
	}
	return b.String()
}
