package excmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/exline/internal/editor/membuf"
)

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	doc := membuf.New([]string{"one", "two"})
	doc.SetPath(path)
	doc.SetModified(true)
	ctx := doc.Context()

	cmd := mustParse(t, "w")
	status, err := cmd.Execute(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(status, "2L written") {
		t.Errorf("status = %q, expected line count", status)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "one\ntwo\n" {
		t.Errorf("file content = %q", data)
	}
	if doc.Modified() {
		t.Error("document still modified after write")
	}
}

func TestWriteNoFileName(t *testing.T) {
	doc := membuf.New([]string{"one"})
	ctx := doc.Context()

	cmd := mustParse(t, "w")
	if _, err := cmd.Execute(ctx); !errors.Is(err, membuf.ErrNoFileName) {
		t.Fatalf("err = %v, expected ErrNoFileName", err)
	}
}

func TestWriteAs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "renamed.txt")
	doc := membuf.New([]string{"x"})
	ctx := doc.Context()

	cmd := mustParse(t, "w "+path)
	if _, err := cmd.Execute(ctx); err != nil {
		t.Fatal(err)
	}
	if doc.Path() != path {
		t.Errorf("path = %q, expected rebind to %q", doc.Path(), path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("stat %s: %v", path, err)
	}
}

func TestWriteAppendUnsupported(t *testing.T) {
	_, err := NewRegistry().Parse("w >>more.txt")
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("err = %v, expected ErrUnsupported", err)
	}
}

// A range is accepted only when it covers the whole document.
func TestWriteRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	doc := membuf.New([]string{"one", "two", "three"})
	doc.SetPath(path)
	ctx := doc.Context()

	cmd := mustParse(t, "w")
	if _, err := cmd.ExecuteRange(ctx, 0, 2); err != nil {
		t.Fatalf("whole-document range: %v", err)
	}
	if _, err := cmd.ExecuteRange(ctx, 0, 1); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("partial range err = %v, expected ErrUnsupported", err)
	}
}

func TestQuit(t *testing.T) {
	doc := membuf.New([]string{"one"})
	ctx := doc.Context()

	cmd := mustParse(t, "q")
	if _, err := cmd.Execute(ctx); err != nil {
		t.Fatal(err)
	}
	if asked, forced := doc.QuitRequested(); !asked || forced {
		t.Errorf("quit asked=%v forced=%v, expected plain quit", asked, forced)
	}
}

func TestQuitRefusesUnsaved(t *testing.T) {
	doc := membuf.New([]string{"one"})
	doc.SetModified(true)
	ctx := doc.Context()

	cmd := mustParse(t, "q")
	if _, err := cmd.Execute(ctx); !errors.Is(err, membuf.ErrUnsavedChanges) {
		t.Fatalf("err = %v, expected ErrUnsavedChanges", err)
	}

	cmd = mustParse(t, "q!")
	if _, err := cmd.Execute(ctx); err != nil {
		t.Fatal(err)
	}
	if asked, forced := doc.QuitRequested(); !asked || !forced {
		t.Errorf("quit asked=%v forced=%v, expected forced quit", asked, forced)
	}
}

func TestWriteQuit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	doc := membuf.New([]string{"one"})
	doc.SetPath(path)
	doc.SetModified(true)
	ctx := doc.Context()

	cmd := mustParse(t, "wq")
	status, err := cmd.Execute(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(status, "1L written") {
		t.Errorf("status = %q", status)
	}
	if asked, _ := doc.QuitRequested(); !asked {
		t.Error("quit not requested after wq")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("stat %s: %v", path, err)
	}
}

// A failed write leaves the session open.
func TestWriteQuitFailedWrite(t *testing.T) {
	doc := membuf.New([]string{"one"})
	ctx := doc.Context()

	cmd := mustParse(t, "wq")
	if _, err := cmd.Execute(ctx); err == nil {
		t.Fatal("expected write failure for unnamed document")
	}
	if asked, _ := doc.QuitRequested(); asked {
		t.Error("quit requested despite failed write")
	}
}

// Exit writes only when the document is modified.
func TestExit(t *testing.T) {
	t.Run("unmodified skips the write", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.txt")
		doc := membuf.New([]string{"one"})
		doc.SetPath(path)
		ctx := doc.Context()

		cmd := mustParse(t, "x")
		if _, err := cmd.Execute(ctx); err != nil {
			t.Fatal(err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("file written for an unmodified document: %v", err)
		}
		if asked, _ := doc.QuitRequested(); !asked {
			t.Error("quit not requested")
		}
	})

	t.Run("modified writes first", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.txt")
		doc := membuf.New([]string{"one"})
		doc.SetPath(path)
		doc.SetModified(true)
		ctx := doc.Context()

		cmd := mustParse(t, "x")
		if _, err := cmd.Execute(ctx); err != nil {
			t.Fatal(err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("stat %s: %v", path, err)
		}
		if asked, _ := doc.QuitRequested(); !asked {
			t.Error("quit not requested")
		}
	})
}

func TestQuitRejectsArguments(t *testing.T) {
	if _, err := NewRegistry().Parse("q now"); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("err = %v, expected ErrUnsupported", err)
	}
}
