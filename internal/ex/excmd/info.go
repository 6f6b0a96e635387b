package excmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/exline/internal/editor"
)

// RegisterList shows the unnamed register.
type RegisterList struct {
	base
}

func newRegisterList(bang bool, tail string) (Command, error) {
	if err := rejectTail("registers", tail); err != nil {
		return nil, err
	}
	return &RegisterList{base{name: "registers", bang: bang}}, nil
}

// Execute renders the unnamed register with its mode letter. Embedded
// newlines display as ^J.
func (c *RegisterList) Execute(ctx *editor.Context) (string, error) {
	if ctx.Registers == nil {
		return "", nil
	}
	reg := ctx.Registers.Unnamed()
	if reg.Text == "" {
		return `nothing in register "`, nil
	}
	text := strings.ReplaceAll(reg.Text, "\n", "^J")
	return fmt.Sprintf("%s  \"\"   %s", modeLetter(reg.Mode), text), nil
}

// modeLetter is the single-letter register mode tag.
func modeLetter(m editor.RegisterMode) string {
	switch m {
	case editor.Linewise:
		return "l"
	case editor.Blockwise:
		return "b"
	default:
		return "c"
	}
}

// MarkList shows every set mark with its 1-based line and 0-based
// column.
type MarkList struct {
	base
}

func newMarkList(bang bool, tail string) (Command, error) {
	if err := rejectTail("marks", tail); err != nil {
		return nil, err
	}
	return &MarkList{base{name: "marks", bang: bang}}, nil
}

// Execute renders the mark table sorted by mark name.
func (c *MarkList) Execute(ctx *editor.Context) (string, error) {
	var marks map[rune]editor.Position
	if ctx.Marks != nil {
		marks = ctx.Marks.Marks()
	}
	if len(marks) == 0 {
		return "no marks set", nil
	}

	names := make([]rune, 0, len(marks))
	for name := range marks {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	var b strings.Builder
	b.WriteString("mark line  col")
	for _, name := range names {
		pos := marks[name]
		fmt.Fprintf(&b, "\n '%c %5d %4d", name, pos.Line+1, pos.Column)
	}
	return b.String(), nil
}

// HistoryList shows the command history, oldest first. The engine fills
// Entries before execution; without an engine the list is empty.
type HistoryList struct {
	base

	// Entries is the history content to display.
	Entries []string
}

func newHistoryList(bang bool, tail string) (Command, error) {
	if err := rejectTail("history", tail); err != nil {
		return nil, err
	}
	return &HistoryList{base: base{name: "history", bang: bang}}, nil
}

// Execute renders the numbered history table.
func (c *HistoryList) Execute(ctx *editor.Context) (string, error) {
	if len(c.Entries) == 0 {
		return "history empty", nil
	}
	var b strings.Builder
	b.WriteString("#  cmd history")
	for i, e := range c.Entries {
		fmt.Fprintf(&b, "\n%4d  %s", i+1, e)
	}
	return b.String(), nil
}

// LuaRunner executes a chunk of Lua against the editor context and
// returns its echoed output.
type LuaRunner interface {
	Run(ctx *editor.Context, code string) (string, error)
}

// Lua runs its argument as a Lua chunk in the embedded runtime. The
// engine fills Runner before execution; without a runtime the command
// is unsupported syntax, which lets the backend evaluate it instead.
type Lua struct {
	base

	// Runner is the runtime that evaluates the chunk.
	Runner LuaRunner

	code string
}

func newLua(bang bool, tail string) (Command, error) {
	code := strings.TrimSpace(tail)
	if code == "" {
		return nil, fmt.Errorf("lua: argument required")
	}
	return &Lua{base: base{name: "lua", bang: bang}, code: code}, nil
}

// Code returns the Lua chunk text.
func (c *Lua) Code() string { return c.code }

// Execute evaluates the chunk.
func (c *Lua) Execute(ctx *editor.Context) (string, error) {
	if c.Runner == nil {
		return "", fmt.Errorf("%w: no lua runtime", ErrUnsupported)
	}
	return c.Runner.Run(ctx, c.code)
}
