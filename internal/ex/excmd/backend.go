package excmd

import (
	"fmt"

	"github.com/dshills/exline/internal/editor"
)

// The commands below parse locally so abbreviations and bang handling
// stay uniform, but their semantics live in the backend. Executing one
// without delegation reports unsupported syntax.

// Global runs a command on every line matching a pattern.
type Global struct {
	base
	tail string
}

func newGlobal(bang bool, tail string) (Command, error) {
	return &Global{base: base{name: "global", bang: bang, delegable: true}, tail: tail}, nil
}

// Execute has no local implementation.
func (c *Global) Execute(ctx *editor.Context) (string, error) {
	return "", errBackendOnly(c.name)
}

// ExecuteRange has no local implementation.
func (c *Global) ExecuteRange(ctx *editor.Context, start, end int) (string, error) {
	return "", errBackendOnly(c.name)
}

// VGlobal runs a command on every line not matching a pattern.
type VGlobal struct {
	base
	tail string
}

func newVGlobal(bang bool, tail string) (Command, error) {
	return &VGlobal{base: base{name: "vglobal", bang: bang, delegable: true}, tail: tail}, nil
}

// Execute has no local implementation.
func (c *VGlobal) Execute(ctx *editor.Context) (string, error) {
	return "", errBackendOnly(c.name)
}

// ExecuteRange has no local implementation.
func (c *VGlobal) ExecuteRange(ctx *editor.Context, start, end int) (string, error) {
	return "", errBackendOnly(c.name)
}

// Normal replays its argument as normal-mode keys.
type Normal struct {
	base
	tail string
}

func newNormal(bang bool, tail string) (Command, error) {
	return &Normal{base: base{name: "normal", bang: bang, delegable: true}, tail: tail}, nil
}

// Execute has no local implementation.
func (c *Normal) Execute(ctx *editor.Context) (string, error) {
	return "", errBackendOnly(c.name)
}

// ExecuteRange has no local implementation.
func (c *Normal) ExecuteRange(ctx *editor.Context, start, end int) (string, error) {
	return "", errBackendOnly(c.name)
}

// Sort orders the lines of a range.
type Sort struct {
	base
	tail string
}

func newSort(bang bool, tail string) (Command, error) {
	return &Sort{base: base{name: "sort", bang: bang, delegable: true}, tail: tail}, nil
}

// Execute has no local implementation.
func (c *Sort) Execute(ctx *editor.Context) (string, error) {
	return "", errBackendOnly(c.name)
}

// ExecuteRange has no local implementation.
func (c *Sort) ExecuteRange(ctx *editor.Context, start, end int) (string, error) {
	return "", errBackendOnly(c.name)
}

func errBackendOnly(name string) error {
	return fmt.Errorf("%w: %s has no local implementation", ErrUnsupported, name)
}
