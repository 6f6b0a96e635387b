package excmd

import (
	"errors"
	"testing"

	"github.com/dshills/exline/internal/editor/membuf"
)

func TestSet(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		start    bool
		expected bool
	}{
		{"turn on", "se ic", false, true},
		{"short and long are equal", "se ignorecase", false, true},
		{"turn off", "se noic", true, false},
		{"toggle on", "se ic!", false, true},
		{"toggle off", "se ic!", true, false},
		{"inv toggles", "se invic", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := membuf.New(nil)
			ctx := doc.Context()
			ctx.Session.IgnoreCase = tt.start

			cmd := mustParse(t, tt.input)
			if _, err := cmd.Execute(ctx); err != nil {
				t.Fatal(err)
			}
			if ctx.Session.IgnoreCase != tt.expected {
				t.Errorf("ignorecase = %v, expected %v", ctx.Session.IgnoreCase, tt.expected)
			}
		})
	}
}

func TestSetQuery(t *testing.T) {
	doc := membuf.New(nil)
	ctx := doc.Context()
	ctx.Session.SubstituteGlobal = true

	cmd := mustParse(t, "se gd? ic?")
	status, err := cmd.Execute(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if status != "gdefault noignorecase" {
		t.Errorf("status = %q, expected gdefault noignorecase", status)
	}
}

func TestSetBare(t *testing.T) {
	doc := membuf.New(nil)
	ctx := doc.Context()
	ctx.Session.ExpandTab = true

	cmd := mustParse(t, "se")
	status, err := cmd.Execute(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if status != "nogdefault noignorecase expandtab" {
		t.Errorf("status = %q", status)
	}
}

func TestSetMultiple(t *testing.T) {
	doc := membuf.New(nil)
	ctx := doc.Context()

	cmd := mustParse(t, "se gd ic et")
	if _, err := cmd.Execute(ctx); err != nil {
		t.Fatal(err)
	}
	s := ctx.Session
	if !s.SubstituteGlobal || !s.IgnoreCase || !s.ExpandTab {
		t.Errorf("options = gd:%v ic:%v et:%v, expected all on",
			s.SubstituteGlobal, s.IgnoreCase, s.ExpandTab)
	}
}

// Unknown options and value assignments are unsupported syntax so the
// backend can take them.
func TestSetUnsupported(t *testing.T) {
	t.Run("value assignment", func(t *testing.T) {
		if _, err := NewRegistry().Parse("se tabstop=4"); !errors.Is(err, ErrUnsupported) {
			t.Fatalf("err = %v, expected ErrUnsupported", err)
		}
	})

	t.Run("unknown option", func(t *testing.T) {
		doc := membuf.New(nil)
		ctx := doc.Context()

		cmd := mustParse(t, "se wrapscan")
		if _, err := cmd.Execute(ctx); !errors.Is(err, ErrUnsupported) {
			t.Fatalf("err = %v, expected ErrUnsupported", err)
		}
	})
}

func TestNoHLSearch(t *testing.T) {
	doc := membuf.New(nil)
	ctx := doc.Context()
	ctx.Session.LastSearchPattern = "abc"
	ctx.Session.SearchHighlight = true

	cmd := mustParse(t, "noh")
	if _, err := cmd.Execute(ctx); err != nil {
		t.Fatal(err)
	}
	if ctx.Session.SearchHighlight {
		t.Error("highlight still on after nohlsearch")
	}
	if ctx.Session.LastSearchPattern != "abc" {
		t.Errorf("last pattern = %q, expected kept", ctx.Session.LastSearchPattern)
	}
}
