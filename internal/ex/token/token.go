// Package token lexes the range prefix of an Ex command line into
// address and separator tokens.
package token

import (
	"fmt"
	"strconv"
)

// Kind identifies the token type.
type Kind uint8

const (
	// KindLineNumber is an absolute line number (1-based in the source text).
	KindLineNumber Kind = iota

	// KindDot is the current-line address ".".
	KindDot

	// KindDollar is the last-line address "$".
	KindDollar

	// KindPercent is the whole-file address "%".
	KindPercent

	// KindComma is the range separator ",".
	KindComma

	// KindOffset is a relative offset "+n" or "-n"; bare "+"/"-" is one.
	KindOffset

	// KindMark is a named mark address "'x".
	KindMark

	// KindSelectionFirst is the first line of the visual selection "'<".
	KindSelectionFirst

	// KindSelectionLast is the last line of the visual selection "'>".
	KindSelectionLast
)

// String returns a string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindLineNumber:
		return "lineNumber"
	case KindDot:
		return "dot"
	case KindDollar:
		return "dollar"
	case KindPercent:
		return "percent"
	case KindComma:
		return "comma"
	case KindOffset:
		return "offset"
	case KindMark:
		return "mark"
	case KindSelectionFirst:
		return "selectionFirst"
	case KindSelectionLast:
		return "selectionLast"
	default:
		return "unknown"
	}
}

// Token is one lexed address element.
type Token struct {
	// Kind identifies the token type.
	Kind Kind

	// Text is the raw source fragment.
	Text string

	// Number holds the value for KindLineNumber and the signed delta
	// for KindOffset.
	Number int

	// Mark holds the mark name for KindMark.
	Mark rune
}

// Error describes malformed address syntax.
type Error struct {
	// Text is the offending input fragment.
	Text string

	// Reason describes what was wrong with it.
	Reason string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("bad address %q: %s", e.Text, e.Reason)
}

// Scan lexes the leading range addresses of input. It returns the
// tokens and the unconsumed remainder (command name plus arguments).
// Scanning stops at the first byte that cannot start an address;
// whitespace between tokens is skipped.
func Scan(input string) ([]Token, string, error) {
	var toks []Token
	i := 0
	n := len(input)

	for i < n {
		c := input[i]
		switch {
		case c == ' ' || c == '\t':
			i++

		case c >= '0' && c <= '9':
			start := i
			for i < n && input[i] >= '0' && input[i] <= '9' {
				i++
			}
			text := input[start:i]
			num, err := strconv.Atoi(text)
			if err != nil {
				return nil, "", &Error{Text: text, Reason: "line number out of range"}
			}
			toks = append(toks, Token{Kind: KindLineNumber, Text: text, Number: num})

		case c == '.':
			toks = append(toks, Token{Kind: KindDot, Text: "."})
			i++

		case c == '$':
			toks = append(toks, Token{Kind: KindDollar, Text: "$"})
			i++

		case c == '%':
			toks = append(toks, Token{Kind: KindPercent, Text: "%"})
			i++

		case c == ',':
			toks = append(toks, Token{Kind: KindComma, Text: ","})
			i++

		case c == '+' || c == '-':
			start := i
			i++
			for i < n && input[i] >= '0' && input[i] <= '9' {
				i++
			}
			text := input[start:i]
			delta := 1
			if len(text) > 1 {
				num, err := strconv.Atoi(text[1:])
				if err != nil {
					return nil, "", &Error{Text: text, Reason: "offset out of range"}
				}
				delta = num
			}
			if c == '-' {
				delta = -delta
			}
			toks = append(toks, Token{Kind: KindOffset, Text: text, Number: delta})

		case c == '\'':
			if i+1 >= n {
				return nil, "", &Error{Text: "'", Reason: "missing mark name"}
			}
			m := input[i+1]
			text := input[i : i+2]
			switch {
			case m == '<':
				toks = append(toks, Token{Kind: KindSelectionFirst, Text: text})
			case m == '>':
				toks = append(toks, Token{Kind: KindSelectionLast, Text: text})
			case (m >= 'a' && m <= 'z') || (m >= 'A' && m <= 'Z'):
				toks = append(toks, Token{Kind: KindMark, Text: text, Mark: rune(m)})
			default:
				return nil, "", &Error{Text: text, Reason: "invalid mark name"}
			}
			i += 2

		default:
			return toks, input[i:], nil
		}
	}

	return toks, "", nil
}
