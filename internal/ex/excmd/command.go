// Package excmd defines the closed set of Ex commands, the registry
// that matches abbreviated names to them, and their local execution.
package excmd

import (
	"fmt"
	"strings"

	"github.com/dshills/exline/internal/editor"
)

// Command is one parsed Ex command, ready to execute. Execute and
// ExecuteRange return transient status text for the user; an empty
// string means nothing to report.
type Command interface {
	// Name returns the full command name.
	Name() string

	// Bang reports whether the command carried "!".
	Bang() bool

	// Delegable reports whether the command should run in the backend
	// when delegation is enabled.
	Delegable() bool

	// Execute runs the command with no range.
	Execute(ctx *editor.Context) (string, error)

	// ExecuteRange runs the command over the inclusive line span
	// [start, end] as resolved from the command's range prefix.
	ExecuteRange(ctx *editor.Context, start, end int) (string, error)
}

// base carries the identity every command shares. Commands that accept
// a range override ExecuteRange; for the rest a range is unsupported
// syntax, which lets the backend report the precise failure.
type base struct {
	name      string
	bang      bool
	delegable bool
}

// Name returns the full command name.
func (b base) Name() string { return b.name }

// Bang reports whether the command carried "!".
func (b base) Bang() bool { return b.bang }

// Delegable reports whether the command prefers backend execution.
func (b base) Delegable() bool { return b.delegable }

// ExecuteRange rejects a range by default.
func (b base) ExecuteRange(ctx *editor.Context, start, end int) (string, error) {
	return "", fmt.Errorf("%w: %s does not take a range", ErrUnsupported, b.name)
}

// entry describes one command in the dispatch table.
type entry struct {
	// name is the full command name.
	name string

	// min is the shortest abbreviation that selects this command.
	min int

	// bang allows "!" after the name. Without it a "!" stays in the
	// argument tail (substitute uses it as a delimiter).
	bang bool

	// build constructs the command from its bang flag and raw tail.
	build func(bang bool, tail string) (Command, error)
}

// Registry matches command names, including unambiguous Vim-style
// abbreviations, against the fixed command table.
type Registry struct {
	entries []entry
}

// NewRegistry creates the registry with the full command table. Earlier
// entries win when an abbreviation satisfies more than one.
func NewRegistry() *Registry {
	return &Registry{entries: []entry{
		{name: "substitute", min: 1, build: newSubstitute},
		{name: "write", min: 1, bang: true, build: newWrite},
		{name: "wq", min: 2, bang: true, build: newWriteQuit},
		{name: "xit", min: 1, bang: true, build: newExit},
		{name: "quit", min: 1, bang: true, build: newQuit},
		{name: "delete", min: 1, build: newDelete},
		{name: "yank", min: 1, build: newYank},
		{name: "print", min: 1, build: newPrint},
		{name: "put", min: 2, build: newPut},
		{name: "copy", min: 2, build: newCopy},
		{name: "t", min: 1, build: newCopy},
		{name: "move", min: 1, build: newMove},
		{name: "join", min: 1, build: newJoin},
		{name: "global", min: 1, bang: true, build: newGlobal},
		{name: "vglobal", min: 1, build: newVGlobal},
		{name: "normal", min: 4, bang: true, build: newNormal},
		{name: "sort", min: 3, bang: true, build: newSort},
		{name: "set", min: 2, build: newSet},
		{name: "nohlsearch", min: 3, build: newNoHLSearch},
		{name: "registers", min: 3, build: newRegisterList},
		{name: "marks", min: 4, build: newMarkList},
		{name: "history", min: 3, build: newHistoryList},
		{name: "lua", min: 3, build: newLua},
	}}
}

// Parse matches the leading command name of rest and builds the
// command from the remaining text.
func (r *Registry) Parse(rest string) (Command, error) {
	i := 0
	for i < len(rest) && isLetter(rest[i]) {
		i++
	}
	name := rest[:i]
	if name == "" {
		return nil, &UnknownCommandError{Name: rest}
	}

	e, ok := r.match(name)
	if !ok {
		return nil, &UnknownCommandError{Name: name}
	}

	bang := false
	if e.bang && i < len(rest) && rest[i] == '!' {
		bang = true
		i++
	}
	return e.build(bang, rest[i:])
}

// Names returns the full names in the dispatch table, in table order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.name
	}
	return names
}

// match finds the first table entry the abbreviation selects.
func (r *Registry) match(name string) (entry, bool) {
	for _, e := range r.entries {
		if len(name) >= e.min && len(name) <= len(e.name) && e.name[:len(name)] == name {
			return e, true
		}
	}
	return entry{}, false
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// rejectTail fails on trailing arguments a command has no local
// handling for. The error is unsupported syntax so the backend, when
// enabled, gets a chance to run the full form.
func rejectTail(name, tail string) error {
	if t := strings.TrimSpace(tail); t != "" {
		return fmt.Errorf("%w: %s argument %q", ErrUnsupported, name, t)
	}
	return nil
}

// clampSpan bounds an inclusive span to lines that exist.
func clampSpan(start, end, count int) (int, int, error) {
	if start < 0 {
		start = 0
	}
	if end >= count {
		end = count - 1
	}
	if start > end || end < 0 || start >= count {
		return 0, 0, ErrInvalidRange
	}
	return start, end, nil
}

// spanText copies the lines of an inclusive span.
func spanText(buf editor.Buffer, start, end int) []string {
	lines := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		lines = append(lines, buf.Line(i))
	}
	return lines
}
