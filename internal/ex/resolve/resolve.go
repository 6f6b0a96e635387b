// Package resolve converts parsed line ranges into concrete buffer
// lines using the cursor, selections, and marks of the editor context.
package resolve

import (
	"fmt"

	"github.com/dshills/exline/internal/editor"
	"github.com/dshills/exline/internal/ex/parse"
	"github.com/dshills/exline/internal/ex/token"
)

// MarkNotSetError indicates an address referenced an unset mark.
type MarkNotSetError struct {
	// Mark is the mark name that was not set.
	Mark rune
}

// Error implements the error interface.
func (e *MarkNotSetError) Error() string {
	return fmt.Sprintf("mark not set: '%c", e.Mark)
}

// Jump resolves a bare range (one with no command after it) to the line
// the cursor should move to: the first token of the rightmost non-empty
// side. A separator with both sides empty resolves to the current line.
func Jump(r parse.LineRange, ctx *editor.Context) (int, error) {
	side := r.Right
	if len(side) == 0 {
		side = r.Left
	}
	if len(side) == 0 {
		return ctx.Cursors.Cursor().Line, nil
	}
	return lineFor(side[0], ctx)
}

// Span resolves a range attached to a command into an inclusive line
// span. Empty sides resolve to the current line; a "%" on either side
// expands to the whole buffer. The span is not reordered and not
// clamped; commands bound it against existing lines when they apply.
func Span(r parse.LineRange, ctx *editor.Context) (start, end int, err error) {
	if r.ContainsPercent() {
		return 0, ctx.Buffer.LineCount() - 1, nil
	}

	start, err = sideLine(r.Left, ctx)
	if err != nil {
		return 0, 0, err
	}
	end = start
	if r.HasSeparator {
		end, err = sideLine(r.Right, ctx)
		if err != nil {
			return 0, 0, err
		}
	}
	return start, end, nil
}

// Dest resolves a destination address as used by copy and move: a
// single primary address plus offsets. Line number 0 resolves to -1,
// the position above the first line; numeric destinations beyond the
// buffer stop at the last line.
func Dest(toks []token.Token, ctx *editor.Context) (int, error) {
	line := ctx.Cursors.Cursor().Line
	offset := 0

	for _, t := range toks {
		switch t.Kind {
		case token.KindComma:
			return 0, fmt.Errorf("destination is not a single address: %q", t.Text)

		case token.KindOffset:
			offset += t.Number

		case token.KindLineNumber:
			line = t.Number - 1
			if line < -1 {
				line = -1
			}
			if last := ctx.Buffer.LineCount() - 1; line > last {
				line = last
			}

		default:
			l, err := lineFor(t, ctx)
			if err != nil {
				return 0, err
			}
			line = l
		}
	}
	return line + offset, nil
}

// sideLine resolves one side of a range: the primary address (current
// line when absent) plus the sum of its offsets.
func sideLine(side []token.Token, ctx *editor.Context) (int, error) {
	line := ctx.Cursors.Cursor().Line
	offset := 0

	for _, t := range side {
		if t.Kind == token.KindOffset {
			offset += t.Number
			continue
		}
		l, err := lineFor(t, ctx)
		if err != nil {
			return 0, err
		}
		line = l
	}
	return line + offset, nil
}

// lineFor resolves a single address token to a line index.
func lineFor(t token.Token, ctx *editor.Context) (int, error) {
	switch t.Kind {
	case token.KindLineNumber:
		return clampLine(t.Number-1, ctx.Buffer.LineCount()), nil

	case token.KindDot:
		return ctx.Cursors.Cursor().Line, nil

	case token.KindDollar, token.KindPercent:
		return ctx.Buffer.LineCount() - 1, nil

	case token.KindOffset:
		return ctx.Cursors.Cursor().Line + t.Number, nil

	case token.KindMark:
		if ctx.Marks != nil {
			if pos, ok := ctx.Marks.Mark(t.Mark); ok {
				return pos.Line, nil
			}
		}
		return 0, &MarkNotSetError{Mark: t.Mark}

	case token.KindSelectionFirst:
		return selectionLine(ctx, true), nil

	case token.KindSelectionLast:
		return selectionLine(ctx, false), nil

	default:
		return 0, fmt.Errorf("cannot resolve address %q", t.Text)
	}
}

// selectionLine returns the lowest or highest line covered by the
// active selections. Without a selection the cursor line stands in as a
// degenerate selection.
func selectionLine(ctx *editor.Context, first bool) int {
	var sels []editor.Selection
	if ctx.Selections != nil {
		sels = ctx.Selections.Selections()
	}
	if len(sels) == 0 {
		return ctx.Cursors.Cursor().Line
	}

	line := sels[0].StartLine()
	if !first {
		line = sels[0].EndLine()
	}
	for _, s := range sels[1:] {
		if first {
			if l := s.StartLine(); l < line {
				line = l
			}
		} else {
			if l := s.EndLine(); l > line {
				line = l
			}
		}
	}
	return line
}

// clampLine bounds a zero-based line index. The upper bound is the raw
// line count, one past the last index; callers that need an existing
// line bound the result again when they apply it.
func clampLine(n, count int) int {
	if n < 0 {
		return 0
	}
	if n > count {
		return count
	}
	return n
}
