// Package parse assembles lexed range tokens into a LineRange and
// separates the range prefix from the command text that follows it.
package parse

import (
	"fmt"

	"github.com/dshills/exline/internal/ex/token"
)

// LineRange is the parsed, unresolved range prefix of a command line.
// Right is only populated when a separator was seen.
type LineRange struct {
	// Left holds the tokens before the separator.
	Left []token.Token

	// Right holds the tokens after the separator.
	Right []token.Token

	// HasSeparator records whether a comma was present. A separator
	// with empty sides is still a two-sided range (",": current line
	// through current line).
	HasSeparator bool
}

// Empty reports whether no range prefix was given at all.
func (r LineRange) Empty() bool {
	return len(r.Left) == 0 && len(r.Right) == 0 && !r.HasSeparator
}

// ContainsPercent reports whether either side holds a "%" address.
func (r LineRange) ContainsPercent() bool {
	for _, t := range r.Left {
		if t.Kind == token.KindPercent {
			return true
		}
	}
	for _, t := range r.Right {
		if t.Kind == token.KindPercent {
			return true
		}
	}
	return false
}

// Error describes a malformed range or command line.
type Error struct {
	// Text is the offending input fragment, when one can be named.
	Text string

	// Reason describes what was wrong.
	Reason string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Text == "" {
		return "parse error: " + e.Reason
	}
	return fmt.Sprintf("parse error at %q: %s", e.Text, e.Reason)
}

// Split lexes and assembles the range prefix of input, returning the
// range and the unconsumed command text (name, bang, arguments).
func Split(input string) (LineRange, string, error) {
	toks, rest, err := token.Scan(input)
	if err != nil {
		return LineRange{}, "", err
	}
	r, err := Build(toks)
	if err != nil {
		return LineRange{}, "", err
	}
	return r, rest, nil
}

// Build assembles scanned tokens into a LineRange. At most one
// non-offset primary address may appear per side, and at most one
// separator in the whole range.
func Build(toks []token.Token) (LineRange, error) {
	var r LineRange
	side := &r.Left
	primarySeen := false

	for _, t := range toks {
		switch t.Kind {
		case token.KindComma:
			if r.HasSeparator {
				return LineRange{}, &Error{Text: t.Text, Reason: "second range separator"}
			}
			r.HasSeparator = true
			side = &r.Right
			primarySeen = false

		case token.KindOffset:
			*side = append(*side, t)

		default:
			if primarySeen {
				return LineRange{}, &Error{Text: t.Text, Reason: "second address in range side"}
			}
			primarySeen = true
			*side = append(*side, t)
		}
	}

	return r, nil
}
