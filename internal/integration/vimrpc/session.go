// Package vimrpc delegates Ex command lines to an external
// Vim-compatible RPC server speaking JSON-RPC 2.0 over stdio with
// Content-Length framing. Around every delegated command the session
// pushes the local editor state out, injects the command as key input,
// and pulls the resulting state back in.
package vimrpc

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/dshills/exline/internal/editor"
	"github.com/dshills/exline/internal/logging"
)

// closeTimeout bounds the graceful shutdown before the process is
// killed.
const closeTimeout = 2 * time.Second

var errDisabled = errors.New("session disabled")

// Config configures a backend session.
type Config struct {
	// Command is the server executable.
	Command string

	// Args are the server arguments.
	Args []string

	// Logger receives session diagnostics.
	Logger *logging.Logger
}

// caller is the RPC surface the session needs; tests script it.
type caller interface {
	Call(ctx context.Context, method string, params, result any) error
	Close() error
}

// rpcConn adapts jsonrpc2.Conn's variadic Call to the caller interface.
type rpcConn struct {
	conn *jsonrpc2.Conn
}

func (c rpcConn) Call(ctx context.Context, method string, params, result any) error {
	return c.conn.Call(ctx, method, params, result)
}

func (c rpcConn) Close() error { return c.conn.Close() }

// stdio joins the child's stdout and stdin into one stream for the
// jsonrpc2 codec.
type stdio struct {
	in  io.ReadCloser
	out io.WriteCloser
}

func (s stdio) Read(p []byte) (int, error)  { return s.in.Read(p) }
func (s stdio) Write(p []byte) (int, error) { return s.out.Write(p) }

func (s stdio) Close() error {
	err := s.out.Close()
	if inErr := s.in.Close(); err == nil {
		err = inErr
	}
	return err
}

// serverTraffic drops server-initiated requests; the session only ever
// calls.
type serverTraffic struct {
	log *logging.Logger
}

func (h serverTraffic) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	h.log.Debug("ignoring server request %s", req.Method)
}

// Session is one lazily spawned backend process. It is not safe for
// concurrent use; callers serialize Run and Input.
type Session struct {
	cfg      Config
	log      *logging.Logger
	id       string
	cmd      *exec.Cmd
	conn     caller
	started  bool
	disabled bool
}

// NewSession creates a session. The process is not spawned until the
// first delegated command.
func NewSession(cfg Config) *Session {
	if cfg.Command == "" {
		cfg.Command = "nvim"
	}
	if len(cfg.Args) == 0 {
		cfg.Args = []string{"--embed", "--headless"}
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Nop
	}
	id := uuid.New().String()
	return &Session{
		cfg: cfg,
		id:  id,
		log: log.WithComponent("vimrpc").WithField("session", id[:8]),
	}
}

// Enabled reports whether delegation may still be attempted.
func (s *Session) Enabled() bool { return !s.disabled }

// Run executes one raw command line in the backend and returns its
// message output. The local buffer, cursor, marks, and unnamed register
// are synchronized around the command.
func (s *Session) Run(ctx context.Context, ectx *editor.Context, commandText string) (string, error) {
	if err := s.ensureStarted(); err != nil {
		return "", err
	}
	if err := s.syncOut(ctx, ectx); err != nil {
		return "", err
	}
	if err := s.clearMessages(ctx); err != nil {
		return "", err
	}
	if err := s.inject(ctx, ":"+escapeKeys(commandText)+"<CR>"); err != nil {
		return "", err
	}
	if err := s.cancelBlocked(ctx); err != nil {
		return "", err
	}
	msg, err := s.readMessages(ctx)
	if err != nil {
		return "", err
	}
	if err := s.syncIn(ctx, ectx); err != nil {
		return "", err
	}
	return msg, nil
}

// Input injects raw keys, key notation included, without surfacing
// message output.
func (s *Session) Input(ctx context.Context, ectx *editor.Context, keys string) error {
	if err := s.ensureStarted(); err != nil {
		return err
	}
	if err := s.syncOut(ctx, ectx); err != nil {
		return err
	}
	if err := s.inject(ctx, keys); err != nil {
		return err
	}
	return s.syncIn(ctx, ectx)
}

// Close shuts the backend down: the connection closes, the process gets
// a term signal, and after a grace period a kill.
func (s *Session) Close() error {
	s.disabled = true
	if !s.started {
		return nil
	}
	s.started = false
	s.teardown()
	return nil
}

// ensureStarted spawns the server on first use. A spawn failure
// permanently disables the session.
func (s *Session) ensureStarted() error {
	if s.disabled {
		return &TransportError{Op: "start", Err: errDisabled}
	}
	if s.started {
		return nil
	}

	cmd := exec.Command(s.cfg.Command, s.cfg.Args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return s.disable("start", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return s.disable("start", err)
	}
	if err := cmd.Start(); err != nil {
		return s.disable("start", err)
	}

	s.cmd = cmd
	stream := jsonrpc2.NewBufferedStream(stdio{in: stdout, out: stdin}, jsonrpc2.VSCodeObjectCodec{})
	s.conn = rpcConn{conn: jsonrpc2.NewConn(context.Background(), stream, serverTraffic{log: s.log})}
	s.started = true
	s.log.Info("spawned %s (pid %d)", s.cfg.Command, cmd.Process.Pid)
	return nil
}

// call performs one RPC. Any failure tears the session down.
func (s *Session) call(ctx context.Context, method string, params, result any) error {
	if err := s.conn.Call(ctx, method, params, result); err != nil {
		return s.disable(method, err)
	}
	return nil
}

// disable marks the session unusable and reaps the process.
func (s *Session) disable(op string, err error) error {
	s.log.Warn("disabling delegation: %s: %v", op, err)
	s.disabled = true
	if s.started {
		s.started = false
		s.teardown()
	}
	return &TransportError{Op: op, Err: err}
}

// teardown closes the connection and terminates the process, escalating
// to a kill after the grace period.
func (s *Session) teardown() {
	if s.conn != nil {
		_ = s.conn.Close()
	}
	if s.cmd == nil || s.cmd.Process == nil {
		return
	}

	done := make(chan error, 1)
	go func() { done <- s.cmd.Wait() }()

	_ = s.cmd.Process.Signal(syscall.SIGTERM)
	select {
	case <-done:
	case <-time.After(closeTimeout):
		s.log.Warn("backend did not exit, killing")
		_ = s.cmd.Process.Kill()
		<-done
	}
	s.cmd = nil
}

// syncOut pushes the local editor state into the backend: all lines,
// the cursor, the visual span, every mark, the unnamed register, and
// the expandtab option.
func (s *Session) syncOut(ctx context.Context, ectx *editor.Context) error {
	var ignored any

	lines := ectx.Buffer.Lines()
	if err := s.call(ctx, "nvim_buf_set_lines", []any{0, 0, -1, false, lines}, &ignored); err != nil {
		return err
	}

	cur := ectx.Cursors.Cursor()
	if err := s.call(ctx, "nvim_win_set_cursor", []any{0, []int{cur.Line + 1, cur.Column}}, &ignored); err != nil {
		return err
	}

	if ectx.Selections != nil {
		if sels := ectx.Selections.Selections(); len(sels) > 0 {
			start, end := selectionBounds(sels[0])
			if err := s.setPos(ctx, "'<", start); err != nil {
				return err
			}
			if err := s.setPos(ctx, "'>", end); err != nil {
				return err
			}
		}
	}

	if ectx.Marks != nil {
		marks := ectx.Marks.Marks()
		names := make([]rune, 0, len(marks))
		for name := range marks {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
		for _, name := range names {
			if err := s.setPos(ctx, "'"+string(name), marks[name]); err != nil {
				return err
			}
		}
	}

	if ectx.Registers != nil {
		if reg := ectx.Registers.Unnamed(); reg.Text != "" {
			params := []any{"setreg", []any{`"`, reg.Text, regtype(reg.Mode)}}
			if err := s.call(ctx, "nvim_call_function", params, &ignored); err != nil {
				return err
			}
		}
	}

	opt := "set noexpandtab"
	if ectx.Session.ExpandTab {
		opt = "set expandtab"
	}
	return s.call(ctx, "nvim_command", []any{opt}, &ignored)
}

// setPos places a mark through setpos() with 1-based line and column.
// Each position keeps its own column.
func (s *Session) setPos(ctx context.Context, name string, pos editor.Position) error {
	var ignored any
	params := []any{"setpos", []any{name, []int{0, pos.Line + 1, pos.Column + 1, 0}}}
	return s.call(ctx, "nvim_call_function", params, &ignored)
}

// clearMessages resets the message variables read back after the
// command.
func (s *Session) clearMessages(ctx context.Context) error {
	var ignored any
	if err := s.call(ctx, "nvim_command", []any{"let v:errmsg = ''"}, &ignored); err != nil {
		return err
	}
	return s.call(ctx, "nvim_command", []any{"let v:statusmsg = ''"}, &ignored)
}

// inject feeds keys into the backend's input queue.
func (s *Session) inject(ctx context.Context, keys string) error {
	var written int
	return s.call(ctx, "nvim_input", []any{keys}, &written)
}

// modeInfo mirrors the nvim_get_mode reply.
type modeInfo struct {
	Mode     string `json:"mode"`
	Blocking bool   `json:"blocking"`
}

// cancelBlocked sends an escape when the injected command left the
// backend waiting for more input (an unfinished prompt, for example).
func (s *Session) cancelBlocked(ctx context.Context) error {
	var mode modeInfo
	if err := s.call(ctx, "nvim_get_mode", []any{}, &mode); err != nil {
		return err
	}
	if !mode.Blocking {
		return nil
	}
	return s.inject(ctx, "<Esc>")
}

// readMessages returns what the command reported: the error message
// when one was set, the status message otherwise.
func (s *Session) readMessages(ctx context.Context) (string, error) {
	var errmsg string
	if err := s.call(ctx, "nvim_get_vvar", []any{"errmsg"}, &errmsg); err != nil {
		return "", err
	}
	if msg := cleanMessage(errmsg); msg != "" {
		return msg, nil
	}

	var statusmsg string
	if err := s.call(ctx, "nvim_get_vvar", []any{"statusmsg"}, &statusmsg); err != nil {
		return "", err
	}
	return cleanMessage(statusmsg), nil
}

// syncIn pulls the backend state into the local editor: all lines with
// carriage-return artifacts stripped, the cursor, and the unnamed
// register.
func (s *Session) syncIn(ctx context.Context, ectx *editor.Context) error {
	var lines []string
	if err := s.call(ctx, "nvim_buf_get_lines", []any{0, 0, -1, false}, &lines); err != nil {
		return err
	}
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}
	ectx.BeginGroup("vim")
	ectx.Buffer.ReplaceAll(lines)
	ectx.EndGroup()

	var cur [2]int
	if err := s.call(ctx, "nvim_win_get_cursor", []any{0}, &cur); err != nil {
		return err
	}
	ectx.Cursors.SetCursor(editor.Position{Line: cur[0] - 1, Column: cur[1]})

	if ectx.Registers == nil {
		return nil
	}
	var text string
	if err := s.call(ctx, "nvim_call_function", []any{"getreg", []any{`"`}}, &text); err != nil {
		return err
	}
	var kind string
	if err := s.call(ctx, "nvim_call_function", []any{"getregtype", []any{`"`}}, &kind); err != nil {
		return err
	}
	ectx.Registers.SetUnnamed(editor.RegisterText{Text: text, Mode: registerMode(kind)})
	return nil
}

// escapeKeys protects literal "<" from being read as key notation.
func escapeKeys(text string) string {
	return strings.ReplaceAll(text, "<", "<lt>")
}

// cleanMessage strips line-ending artifacts from a message variable.
func cleanMessage(msg string) string {
	return strings.TrimRight(msg, "\r\n")
}

// selectionBounds orders a selection's endpoints. Each endpoint keeps
// its own column.
func selectionBounds(sel editor.Selection) (start, end editor.Position) {
	start, end = sel.Anchor, sel.Head
	if end.Line < start.Line || (end.Line == start.Line && end.Column < start.Column) {
		start, end = end, start
	}
	return start, end
}

// regtype is the setreg() type letter for a register mode.
func regtype(m editor.RegisterMode) string {
	switch m {
	case editor.Linewise:
		return "l"
	case editor.Blockwise:
		return "b"
	default:
		return "c"
	}
}

// registerMode decodes a getregtype() reply: "v" charwise, "V"
// linewise, and a CTRL-V prefix (or "b") blockwise.
func registerMode(kind string) editor.RegisterMode {
	switch {
	case kind == "V" || kind == "l":
		return editor.Linewise
	case strings.HasPrefix(kind, "\x16") || strings.HasPrefix(kind, "b"):
		return editor.Blockwise
	default:
		return editor.Charwise
	}
}
