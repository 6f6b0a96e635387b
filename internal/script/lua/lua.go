// Package lua embeds a sandboxed Lua runtime behind the :lua command.
//
// The runtime opens only the safe standard libraries, strips the chunk
// loaders, and bounds each invocation with a context deadline. Editor
// access goes through the ed module, which operates on the editor
// context supplied per Run.
package lua

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/exline/internal/editor"
	"github.com/dshills/exline/internal/logging"
)

// DefaultTimeout bounds a single chunk. The VM checks its context
// between instructions, so runaway loops abort here rather than
// hanging the command line.
const DefaultTimeout = 2 * time.Second

// ErrRuntimeClosed is returned when running code on a closed runtime.
var ErrRuntimeClosed = errors.New("lua runtime is closed")

// Runtime wraps a gopher-lua state for one editor session.
//
// LState is not goroutine-safe; the mutex serializes Go-side callers,
// and chunk execution itself is single-threaded.
type Runtime struct {
	mu     sync.Mutex
	L      *lua.LState
	log    *logging.Logger
	closed bool

	timeout time.Duration

	// Per-Run state consumed by the ed module closures.
	ectx   *editor.Context
	echoes []string
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithTimeout overrides the per-chunk execution deadline.
func WithTimeout(d time.Duration) Option {
	return func(r *Runtime) {
		r.timeout = d
	}
}

// New creates a sandboxed runtime with the ed module installed.
func New(log *logging.Logger, opts ...Option) *Runtime {
	r := &Runtime{
		log:     log.WithComponent("lua"),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}

	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})
	r.L = L

	openSafeLibraries(L)
	r.installSandbox()
	r.installEdModule()

	return r
}

// openSafeLibraries opens only safe Lua standard libraries. io, os,
// debug and package stay closed: no file system, no system calls, no
// module loading.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	// The open functions leave their module tables on the stack.
	L.SetTop(0)
}

// installSandbox strips the chunk loaders and points print at the
// echo sink.
func (r *Runtime) installSandbox() {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		r.L.SetGlobal(name, lua.LNil)
	}
	r.L.SetGlobal("print", r.L.NewFunction(r.luaPrint))
}

// installEdModule registers the ed table. All functions operate on the
// editor context of the Run call in flight; lines and columns are
// 1-based on the Lua side.
func (r *Runtime) installEdModule() {
	mod := r.L.SetFuncs(r.L.NewTable(), map[string]lua.LGFunction{
		"line":      r.edLine,
		"setline":   r.edSetLine,
		"linecount": r.edLineCount,
		"cursor":    r.edCursor,
		"setcursor": r.edSetCursor,
		"echo":      r.edEcho,
	})
	r.L.SetGlobal("ed", mod)
}

// Run executes one chunk against ectx and returns the accumulated
// echo output. Buffer edits land in a single undo group; a failed
// chunk rolls its edits back.
func (r *Runtime) Run(ectx *editor.Context, code string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return "", ErrRuntimeClosed
	}
	if err := ectx.Validate(); err != nil {
		return "", err
	}

	r.ectx = ectx
	r.echoes = r.echoes[:0]
	defer func() { r.ectx = nil }()

	lctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	r.L.SetContext(lctx)
	defer r.L.RemoveContext()

	ectx.BeginGroup("lua")
	err := r.doWithRecovery(func() error {
		return r.L.DoString(code)
	})
	if err != nil {
		ectx.CancelGroup()
		return "", fmt.Errorf("lua: %w", err)
	}
	ectx.EndGroup()

	return strings.Join(r.echoes, "\n"), nil
}

// doWithRecovery executes fn with panic recovery.
func (r *Runtime) doWithRecovery(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("chunk panicked: %v", rec)
			err = fmt.Errorf("lua panic: %v", rec)
		}
	}()
	return fn()
}

// Close releases the Lua state. Run returns ErrRuntimeClosed afterwards.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	r.L.Close()
	return nil
}

func (r *Runtime) echo(msg string) {
	r.echoes = append(r.echoes, msg)
}

// luaPrint replaces the stock print, writing to the echo sink instead
// of stdout.
func (r *Runtime) luaPrint(L *lua.LState) int {
	top := L.GetTop()
	parts := make([]string, 0, top)
	for i := 1; i <= top; i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	r.echo(strings.Join(parts, "\t"))
	return 0
}

func (r *Runtime) edLine(L *lua.LState) int {
	n := L.CheckInt(1)
	if n < 1 || n > r.ectx.Buffer.LineCount() {
		L.RaiseError("line %d out of range", n)
		return 0
	}
	L.Push(lua.LString(r.ectx.Buffer.Line(n - 1)))
	return 1
}

func (r *Runtime) edSetLine(L *lua.LState) int {
	n := L.CheckInt(1)
	text := L.CheckString(2)
	if err := r.ectx.Buffer.SetLine(n-1, text); err != nil {
		L.RaiseError("line %d out of range", n)
	}
	return 0
}

func (r *Runtime) edLineCount(L *lua.LState) int {
	L.Push(lua.LNumber(r.ectx.Buffer.LineCount()))
	return 1
}

func (r *Runtime) edCursor(L *lua.LState) int {
	pos := r.ectx.Cursors.Cursor()
	L.Push(lua.LNumber(pos.Line + 1))
	L.Push(lua.LNumber(pos.Column + 1))
	return 2
}

func (r *Runtime) edSetCursor(L *lua.LState) int {
	line := L.CheckInt(1)
	col := L.OptInt(2, 1)

	last := r.ectx.Buffer.LineCount()
	if line < 1 {
		line = 1
	} else if line > last {
		line = last
	}
	if col < 1 {
		col = 1
	}
	r.ectx.Cursors.SetCursor(editor.Position{Line: line - 1, Column: col - 1})
	return 0
}

func (r *Runtime) edEcho(L *lua.LState) int {
	r.echo(L.CheckString(1))
	return 0
}
