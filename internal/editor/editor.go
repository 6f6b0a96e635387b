// Package editor defines the host-editor contract the command-line
// engine executes against: the line-oriented document, cursor,
// selections, marks, registers, and session options.
package editor

// Position is a zero-based location in a document.
type Position struct {
	// Line is the zero-based line index.
	Line int

	// Column is the zero-based column index within the line.
	Column int
}

// Selection is a directional span from Anchor to Head. Anchor is where
// the selection started; Head is where the cursor is.
type Selection struct {
	Anchor Position
	Head   Position
}

// StartLine returns the smaller of the two endpoint lines.
func (s Selection) StartLine() int {
	if s.Anchor.Line <= s.Head.Line {
		return s.Anchor.Line
	}
	return s.Head.Line
}

// EndLine returns the larger of the two endpoint lines.
func (s Selection) EndLine() int {
	if s.Anchor.Line >= s.Head.Line {
		return s.Anchor.Line
	}
	return s.Head.Line
}

// RegisterMode categorizes register content by how it was captured.
type RegisterMode uint8

const (
	// Charwise content is a character span within lines.
	Charwise RegisterMode = iota

	// Linewise content is whole lines.
	Linewise

	// Blockwise content is a rectangular block.
	Blockwise
)

// String returns the string representation of the register mode.
func (m RegisterMode) String() string {
	switch m {
	case Charwise:
		return "charwise"
	case Linewise:
		return "linewise"
	case Blockwise:
		return "blockwise"
	default:
		return "unknown"
	}
}

// RegisterText is register content together with its wise mode.
type RegisterText struct {
	Text string
	Mode RegisterMode
}

// Session holds command-line state that persists across commands within
// one editing session. It replaces editor-global flags: every consumer
// reads its own session.
type Session struct {
	// LastSearchPattern is the most recent search pattern. Substitute
	// with an empty pattern reuses it; a successful substitute with an
	// explicit pattern refreshes it.
	LastSearchPattern string

	// SearchHighlight reports whether matches of LastSearchPattern are
	// highlighted. Searches and substitutes turn it on; nohlsearch
	// turns it off until the next search.
	SearchHighlight bool

	// SubstituteGlobal is the gdefault option: when set, substitutions
	// replace every match per line unless the g flag inverts it back.
	SubstituteGlobal bool

	// IgnoreCase is the ignorecase option applied to pattern compiles.
	IgnoreCase bool

	// ExpandTab is the expandtab option, mirrored to the backend on sync.
	ExpandTab bool
}

// NewSession returns a session with all options at their defaults.
func NewSession() *Session {
	return &Session{}
}
