package lua

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dshills/exline/internal/editor"
	"github.com/dshills/exline/internal/editor/membuf"
	"github.com/dshills/exline/internal/ex/excmd"
	"github.com/dshills/exline/internal/logging"
)

var _ excmd.LuaRunner = (*Runtime)(nil)

func testRuntime(t *testing.T, opts ...Option) *Runtime {
	t.Helper()
	r := New(logging.Nop, opts...)
	t.Cleanup(func() { r.Close() })
	return r
}

func testContext(t *testing.T) (*editor.Context, *membuf.Document) {
	t.Helper()
	doc := membuf.New([]string{"one", "two", "three", "four", "five"})
	doc.SetCursor(editor.Position{Line: 2})
	return doc.Context(), doc
}

func TestRunEcho(t *testing.T) {
	r := testRuntime(t)
	ctx, _ := testContext(t)

	out, err := r.Run(ctx, `ed.echo("hello")`)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out != "hello" {
		t.Errorf("output = %q, expected hello", out)
	}
}

func TestRunJoinsEchoes(t *testing.T) {
	r := testRuntime(t)
	ctx, _ := testContext(t)

	out, err := r.Run(ctx, `ed.echo("a") ed.echo("b")`)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out != "a\nb" {
		t.Errorf("output = %q, expected a\\nb", out)
	}
}

func TestPrintRedirectsToEcho(t *testing.T) {
	r := testRuntime(t)
	ctx, _ := testContext(t)

	out, err := r.Run(ctx, `print("x", 1)`)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out != "x\t1" {
		t.Errorf("output = %q, expected x\\t1", out)
	}
}

func TestLineAccess(t *testing.T) {
	r := testRuntime(t)
	ctx, _ := testContext(t)

	out, err := r.Run(ctx, `ed.echo(ed.line(2))`)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out != "two" {
		t.Errorf("output = %q, expected two", out)
	}
}

func TestLineOutOfRange(t *testing.T) {
	r := testRuntime(t)
	ctx, _ := testContext(t)

	_, err := r.Run(ctx, `ed.line(99)`)
	if err == nil {
		t.Fatal("expected error for out of range line")
	}
	if !strings.Contains(err.Error(), "line 99 out of range") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSetLine(t *testing.T) {
	r := testRuntime(t)
	ctx, doc := testContext(t)

	if _, err := r.Run(ctx, `ed.setline(1, "ONE")`); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := doc.Line(0); got != "ONE" {
		t.Errorf("line 1 = %q, expected ONE", got)
	}
}

func TestChunkEditsUndoAsOneStep(t *testing.T) {
	r := testRuntime(t)
	ctx, doc := testContext(t)

	code := `
ed.setline(1, "ONE")
ed.setline(2, "TWO")
`
	if _, err := r.Run(ctx, code); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if depth := doc.UndoDepth(); depth != 1 {
		t.Fatalf("UndoDepth = %d, expected 1", depth)
	}
	if !doc.Undo() {
		t.Fatal("Undo failed")
	}
	if got := doc.Line(0); got != "one" {
		t.Errorf("after undo line 1 = %q, expected one", got)
	}
	if got := doc.Line(1); got != "two" {
		t.Errorf("after undo line 2 = %q, expected two", got)
	}
}

func TestFailedChunkRollsBack(t *testing.T) {
	r := testRuntime(t)
	ctx, doc := testContext(t)

	_, err := r.Run(ctx, `ed.setline(1, "ONE") error("boom")`)
	if err == nil {
		t.Fatal("expected chunk error")
	}
	if got := doc.Line(0); got != "one" {
		t.Errorf("line 1 = %q, expected rollback to one", got)
	}
	if depth := doc.UndoDepth(); depth != 0 {
		t.Errorf("UndoDepth = %d, expected 0 after rollback", depth)
	}
}

func TestLineCountAndCursor(t *testing.T) {
	r := testRuntime(t)
	ctx, _ := testContext(t)

	out, err := r.Run(ctx, `
local l, c = ed.cursor()
ed.echo(ed.linecount() .. " " .. l .. ":" .. c)
`)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out != "5 3:1" {
		t.Errorf("output = %q, expected 5 3:1", out)
	}
}

func TestSetCursor(t *testing.T) {
	r := testRuntime(t)
	ctx, doc := testContext(t)

	if _, err := r.Run(ctx, `ed.setcursor(5)`); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := doc.Cursor().Line; got != 4 {
		t.Errorf("cursor line = %d, expected 4", got)
	}
}

func TestSetCursorClamps(t *testing.T) {
	r := testRuntime(t)
	ctx, doc := testContext(t)

	if _, err := r.Run(ctx, `ed.setcursor(99, 99)`); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := doc.Cursor().Line; got != 4 {
		t.Errorf("cursor line = %d, expected clamp to 4", got)
	}
}

func TestSyntaxErrorSurfaces(t *testing.T) {
	r := testRuntime(t)
	ctx, _ := testContext(t)

	_, err := r.Run(ctx, `this is not lua`)
	if err == nil {
		t.Fatal("expected syntax error")
	}
	if !strings.HasPrefix(err.Error(), "lua:") {
		t.Errorf("error should carry lua prefix, got %v", err)
	}
}

func TestRunawayLoopTimesOut(t *testing.T) {
	r := testRuntime(t, WithTimeout(100*time.Millisecond))
	ctx, _ := testContext(t)

	start := time.Now()
	_, err := r.Run(ctx, `while true do end`)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timeout took %v, expected prompt abort", elapsed)
	}
}

func TestRuntimeRecoversAfterTimeout(t *testing.T) {
	r := testRuntime(t, WithTimeout(100*time.Millisecond))
	ctx, _ := testContext(t)

	if _, err := r.Run(ctx, `while true do end`); err == nil {
		t.Fatal("expected timeout error")
	}

	out, err := r.Run(ctx, `ed.echo("alive")`)
	if err != nil {
		t.Fatalf("Run after timeout failed: %v", err)
	}
	if out != "alive" {
		t.Errorf("output = %q, expected alive", out)
	}
}

func TestSandboxRemovesLoaders(t *testing.T) {
	r := testRuntime(t)
	ctx, _ := testContext(t)

	out, err := r.Run(ctx, `
if dofile == nil and loadfile == nil and load == nil and os == nil and io == nil then
  ed.echo("sandboxed")
end
`)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out != "sandboxed" {
		t.Errorf("output = %q, expected sandboxed", out)
	}
}

func TestSafeLibrariesAvailable(t *testing.T) {
	r := testRuntime(t)
	ctx, _ := testContext(t)

	out, err := r.Run(ctx, `ed.echo(string.upper("abc") .. math.floor(2.9) .. table.concat({"x","y"}, "-"))`)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out != "ABC2x-y" {
		t.Errorf("output = %q, expected ABC2x-y", out)
	}
}

func TestClosedRuntime(t *testing.T) {
	r := New(logging.Nop)
	ctx, _ := testContext(t)

	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	_, err := r.Run(ctx, `ed.echo("x")`)
	if !errors.Is(err, ErrRuntimeClosed) {
		t.Errorf("expected ErrRuntimeClosed, got %v", err)
	}
}
