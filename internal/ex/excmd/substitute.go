package excmd

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dshills/exline/internal/editor"
)

// SubstituteArgs is the parsed tail of a substitute command.
type SubstituteArgs struct {
	// Pattern is the search pattern; empty means reuse the last search.
	Pattern string

	// Replacement is the replacement text, with delimiter escapes
	// already removed and all other escapes preserved.
	Replacement string

	// Flags holds the trailing flag letters.
	Flags string

	// Delimiter is the separator rune that was used, zero for a bare
	// substitute.
	Delimiter rune
}

// Substitute replaces pattern matches within a line span. Without a
// range it operates on the cursor line.
type Substitute struct {
	base
	args SubstituteArgs
}

func newSubstitute(bang bool, tail string) (Command, error) {
	args, err := parseSubstituteTail(tail)
	if err != nil {
		return nil, err
	}
	return &Substitute{base: base{name: "substitute", bang: bang}, args: args}, nil
}

// Args returns the parsed substitute arguments.
func (c *Substitute) Args() SubstituteArgs { return c.args }

// Execute substitutes on the cursor line.
func (c *Substitute) Execute(ctx *editor.Context) (string, error) {
	line := ctx.CursorLine()
	return c.ExecuteRange(ctx, line, line)
}

// ExecuteRange substitutes over the inclusive span [start, end]. All
// line edits land in one undo group. The effective global behavior is
// the session default inverted by the g flag; an explicit pattern that
// compiles becomes the session's last search pattern.
func (c *Substitute) ExecuteRange(ctx *editor.Context, start, end int) (string, error) {
	start, end, err := clampSpan(start, end, ctx.Buffer.LineCount())
	if err != nil {
		return "", err
	}

	pattern := c.args.Pattern
	if pattern == "" {
		pattern = ctx.Session.LastSearchPattern
		if pattern == "" {
			return "", ErrNoPreviousPattern
		}
	}

	ignoreCase := ctx.Session.IgnoreCase || strings.ContainsRune(c.args.Flags, 'i')
	source := pattern
	if ignoreCase {
		source = "(?i)" + pattern
	}
	re, err := regexp.Compile(source)
	if err != nil {
		return "", fmt.Errorf("invalid pattern %q: %v", pattern, err)
	}
	if c.args.Pattern != "" {
		ctx.Session.LastSearchPattern = c.args.Pattern
	}
	ctx.Session.SearchHighlight = true

	global := ctx.Session.SubstituteGlobal != strings.ContainsRune(c.args.Flags, 'g')

	type change struct {
		line int
		text string
	}
	var changes []change
	subs, touched := 0, 0

	for i := start; i <= end; i++ {
		src := ctx.Buffer.Line(i)
		out, n := substituteLine(re, src, c.args.Replacement, global)
		if n == 0 {
			continue
		}
		subs += n
		touched++
		if out != src {
			changes = append(changes, change{line: i, text: out})
		}
	}

	if subs == 0 {
		return "", fmt.Errorf("pattern not found: %s", pattern)
	}

	if len(changes) > 0 {
		ctx.BeginGroup("substitute")
		for _, ch := range changes {
			if err := ctx.Buffer.SetLine(ch.line, ch.text); err != nil {
				ctx.CancelGroup()
				return "", err
			}
		}
		ctx.EndGroup()
	}

	if subs > 2 {
		return fmt.Sprintf("%d substitutions on %d lines", subs, touched), nil
	}
	return "", nil
}

// parseSubstituteTail splits a substitute tail into pattern,
// replacement, and flags. The first rune is the delimiter; a backslash
// before the delimiter makes it literal and is dropped, every other
// backslash pair passes through untouched.
func parseSubstituteTail(tail string) (SubstituteArgs, error) {
	var args SubstituteArgs
	if tail == "" {
		return args, nil
	}

	delim, size := utf8.DecodeRuneInString(tail)
	if !validDelimiter(delim) {
		return args, fmt.Errorf("%w: substitute delimiter %q", ErrUnsupported, string(delim))
	}
	args.Delimiter = delim

	var fields [3]strings.Builder
	field := 0
	i := size
	for i < len(tail) {
		r, w := utf8.DecodeRuneInString(tail[i:])

		if r == '\\' && i+w < len(tail) {
			next, nw := utf8.DecodeRuneInString(tail[i+w:])
			if next == delim {
				fields[field].WriteRune(delim)
			} else {
				fields[field].WriteRune('\\')
				fields[field].WriteRune(next)
			}
			i += w + nw
			continue
		}

		if r == delim {
			field++
			if field > 2 {
				return args, fmt.Errorf("trailing characters: %s", tail[i:])
			}
			i += w
			continue
		}

		fields[field].WriteRune(r)
		i += w
	}

	args.Pattern = fields[0].String()
	args.Replacement = fields[1].String()
	args.Flags = fields[2].String()

	for _, f := range args.Flags {
		switch f {
		case 'g', 'i':
		default:
			return args, fmt.Errorf("%w: substitute flag %q", ErrUnsupported, string(f))
		}
	}
	return args, nil
}

// validDelimiter reports whether r may separate substitute fields.
// Alphanumerics, whitespace, backslash, double quote, and bar are
// reserved by the command grammar.
func validDelimiter(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	case r == ' ', r == '\t', r == '\\', r == '"', r == '|':
		return false
	}
	return true
}

// substituteLine applies the pattern to one line: the first match, or
// every non-overlapping match when global is set. It returns the new
// line and the number of replacements.
func substituteLine(re *regexp.Regexp, src, rep string, global bool) (string, int) {
	var matches [][]int
	if global {
		matches = re.FindAllStringSubmatchIndex(src, -1)
	} else if m := re.FindStringSubmatchIndex(src); m != nil {
		matches = [][]int{m}
	}
	if len(matches) == 0 {
		return src, 0
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(src[last:m[0]])
		b.WriteString(expandReplacement(rep, src, m))
		last = m[1]
	}
	b.WriteString(src[last:])
	return b.String(), len(matches)
}

// expandReplacement renders the replacement text for one match.
// "&" and "\0" insert the whole match, "\1".."\9" insert submatches,
// "\&" and "\\" are literals; any other escaped rune stands for itself.
func expandReplacement(rep, src string, m []int) string {
	var b strings.Builder
	for i := 0; i < len(rep); i++ {
		c := rep[i]
		switch {
		case c == '&':
			b.WriteString(src[m[0]:m[1]])

		case c == '\\' && i+1 < len(rep):
			i++
			d := rep[i]
			if d >= '0' && d <= '9' {
				g := int(d - '0')
				if 2*g+1 < len(m) && m[2*g] >= 0 {
					b.WriteString(src[m[2*g]:m[2*g+1]])
				}
				break
			}
			b.WriteByte(d)

		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
