// Package ex executes Ex command lines against an editor context. The
// engine splits the range prefix from the command, resolves it, runs
// the matched command locally, and falls back to an external Vim
// backend for syntax outside the local implementation.
package ex

import (
	"context"
	"errors"
	"strings"

	"github.com/dshills/exline/internal/editor"
	"github.com/dshills/exline/internal/ex/excmd"
	"github.com/dshills/exline/internal/ex/history"
	"github.com/dshills/exline/internal/ex/parse"
	"github.com/dshills/exline/internal/ex/resolve"
	"github.com/dshills/exline/internal/logging"
)

// Backend executes command lines in an external Vim-compatible process.
type Backend interface {
	// Run executes one raw command line and returns its message output.
	Run(ctx context.Context, ectx *editor.Context, commandText string) (string, error)

	// Input injects raw keys without surfacing message output.
	Input(ctx context.Context, ectx *editor.Context, keys string) error

	// Enabled reports whether delegation may still be attempted.
	Enabled() bool
}

// Options configure an engine. Every field is optional.
type Options struct {
	// History records executed command lines.
	History *history.Store

	// Backend runs delegable commands and unsupported syntax.
	Backend Backend

	// Lua evaluates :lua chunks. Without a runtime the command falls
	// through to the backend.
	Lua excmd.LuaRunner

	// Logger receives engine diagnostics.
	Logger *logging.Logger
}

// Engine turns command-line text into editor operations.
type Engine struct {
	registry *excmd.Registry
	history  *history.Store
	backend  Backend
	lua      excmd.LuaRunner
	log      *logging.Logger
}

// New creates an engine from options.
func New(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = logging.Nop
	}
	return &Engine{
		registry: excmd.NewRegistry(),
		history:  opts.History,
		backend:  opts.Backend,
		lua:      opts.Lua,
		log:      log.WithComponent("ex"),
	}
}

// CommandNames returns the full names of every registered command.
func (e *Engine) CommandNames() []string {
	return e.registry.Names()
}

// History returns the engine's history store, nil when disabled.
func (e *Engine) History() *history.Store {
	return e.history
}

// PromptAndRun asks the context's prompter for one command line and
// runs it. A cancelled prompt runs nothing.
func (e *Engine) PromptAndRun(ctx context.Context, initial string, ectx *editor.Context) {
	if ectx.Prompt == nil {
		return
	}
	text, ok, err := ectx.Prompt.Prompt(ctx, ":", initial)
	if err != nil {
		e.log.Error("prompt: %v", err)
		return
	}
	if !ok {
		return
	}
	e.Run(ctx, text, ectx)
}

// Run executes one command line. Failures do not propagate: every error
// is reported through the context's status sink.
func (e *Engine) Run(ctx context.Context, text string, ectx *editor.Context) {
	msg, err := e.run(ctx, text, ectx)
	if err != nil {
		e.log.Debug("run %q: %v", text, err)
		ectx.ShowStatus(err.Error())
		return
	}
	if msg != "" {
		ectx.ShowStatus(msg)
	}
}

// run parses, resolves, and executes one command line. The line lands
// in the history before parsing so failed commands can be recalled and
// fixed.
func (e *Engine) run(ctx context.Context, text string, ectx *editor.Context) (string, error) {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, ":"))
	if trimmed == "" {
		return "", nil
	}
	if err := ectx.Validate(); err != nil {
		return "", err
	}

	if e.history != nil {
		e.history.Add(trimmed)
	}

	r, rest, err := parse.Split(trimmed)
	if err != nil {
		return "", err
	}
	rest = strings.TrimLeft(rest, " \t")

	if rest == "" {
		return "", e.jump(r, ectx)
	}

	cmd, err := e.registry.Parse(rest)
	if err != nil {
		if e.shouldDelegate(err) {
			return e.delegate(ctx, trimmed, ectx)
		}
		return "", err
	}

	e.inject(cmd)

	// Delegable commands skip local execution while the backend is up.
	if cmd.Delegable() && e.backendReady() {
		return e.delegate(ctx, trimmed, ectx)
	}

	msg, err := e.execute(cmd, r, ectx)
	if err != nil && e.shouldDelegate(err) {
		return e.delegate(ctx, trimmed, ectx)
	}
	return msg, err
}

// jump moves the cursor for a bare range, bounded to existing lines.
func (e *Engine) jump(r parse.LineRange, ectx *editor.Context) error {
	if r.Empty() {
		return nil
	}
	line, err := resolve.Jump(r, ectx)
	if err != nil {
		return err
	}
	if last := ectx.Buffer.LineCount() - 1; line > last {
		line = last
	}
	if line < 0 {
		line = 0
	}
	ectx.Cursors.SetCursor(editor.Position{Line: line})
	return nil
}

// execute resolves the range, if any, and runs the command.
func (e *Engine) execute(cmd excmd.Command, r parse.LineRange, ectx *editor.Context) (string, error) {
	if r.Empty() {
		return cmd.Execute(ectx)
	}
	start, end, err := resolve.Span(r, ectx)
	if err != nil {
		return "", err
	}
	return cmd.ExecuteRange(ectx, start, end)
}

// inject hands engine collaborators to the commands that need them.
func (e *Engine) inject(cmd excmd.Command) {
	switch c := cmd.(type) {
	case *excmd.Lua:
		c.Runner = e.lua
	case *excmd.HistoryList:
		if e.history != nil {
			c.Entries = e.history.Get()
		}
	}
}

// shouldDelegate reports whether err marks syntax to retry through the
// backend. Unknown command names stay local failures.
func (e *Engine) shouldDelegate(err error) bool {
	return e.backendReady() && errors.Is(err, excmd.ErrUnsupported)
}

func (e *Engine) backendReady() bool {
	return e.backend != nil && e.backend.Enabled()
}

// delegate runs the raw command line in the backend.
func (e *Engine) delegate(ctx context.Context, text string, ectx *editor.Context) (string, error) {
	e.log.Debug("delegating %q", text)
	msg, err := e.backend.Run(ctx, ectx, text)
	if err != nil {
		e.log.Warn("backend %q: %v", text, err)
		return "", err
	}
	return msg, nil
}
