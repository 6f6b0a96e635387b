package excmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/exline/internal/editor"
)

// Write saves the document through the host's file store. A bang lets
// the host force the write past permission problems; an argument saves
// to that path instead.
type Write struct {
	base
	path string
}

func newWrite(bang bool, tail string) (Command, error) {
	path := strings.TrimSpace(tail)
	if strings.HasPrefix(path, ">>") {
		return nil, fmt.Errorf("%w: append write", ErrUnsupported)
	}
	return &Write{base: base{name: "write", bang: bang}, path: path}, nil
}

// Execute writes the whole document.
func (c *Write) Execute(ctx *editor.Context) (string, error) {
	if ctx.File == nil {
		return "", errors.New("write: no file backing")
	}

	target := c.path
	var err error
	if target == "" {
		target = ctx.File.Path()
		err = ctx.File.Save(c.bang)
	} else {
		err = ctx.File.SaveAs(target, c.bang)
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%q %dL written", target, ctx.Buffer.LineCount()), nil
}

// ExecuteRange accepts a range only when it covers the whole document.
func (c *Write) ExecuteRange(ctx *editor.Context, start, end int) (string, error) {
	if start == 0 && end == ctx.Buffer.LineCount()-1 {
		return c.Execute(ctx)
	}
	return "", fmt.Errorf("%w: partial file write", ErrUnsupported)
}

// Quit asks the host to end the session. Without a bang the host
// refuses when unsaved changes exist.
type Quit struct {
	base
}

func newQuit(bang bool, tail string) (Command, error) {
	if err := rejectTail("quit", tail); err != nil {
		return nil, err
	}
	return &Quit{base{name: "quit", bang: bang}}, nil
}

// Execute requests the quit.
func (c *Quit) Execute(ctx *editor.Context) (string, error) {
	if ctx.Host == nil {
		return "", errors.New("quit: no host")
	}
	return "", ctx.Host.Quit(c.bang)
}

// WriteQuit writes the document and then quits.
type WriteQuit struct {
	base
	path string
}

func newWriteQuit(bang bool, tail string) (Command, error) {
	return &WriteQuit{base: base{name: "wq", bang: bang}, path: strings.TrimSpace(tail)}, nil
}

// Execute writes, then quits. A failed write leaves the session open.
func (c *WriteQuit) Execute(ctx *editor.Context) (string, error) {
	w := Write{base: base{name: "write", bang: c.bang}, path: c.path}
	status, err := w.Execute(ctx)
	if err != nil {
		return "", err
	}
	if ctx.Host == nil {
		return "", errors.New("quit: no host")
	}
	if err := ctx.Host.Quit(c.bang); err != nil {
		return "", err
	}
	return status, nil
}

// Exit writes the document only when it is modified, then quits.
type Exit struct {
	base
}

func newExit(bang bool, tail string) (Command, error) {
	if err := rejectTail("xit", tail); err != nil {
		return nil, err
	}
	return &Exit{base{name: "xit", bang: bang}}, nil
}

// Execute writes when needed and quits.
func (c *Exit) Execute(ctx *editor.Context) (string, error) {
	if ctx.File != nil && ctx.File.Modified() {
		w := Write{base: base{name: "write", bang: c.bang}}
		if _, err := w.Execute(ctx); err != nil {
			return "", err
		}
	}
	if ctx.Host == nil {
		return "", errors.New("quit: no host")
	}
	return "", ctx.Host.Quit(c.bang)
}
