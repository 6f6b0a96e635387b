package parse

import (
	"errors"
	"testing"

	"github.com/dshills/exline/internal/ex/token"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		leftLen   int
		rightLen  int
		separator bool
		rest      string
	}{
		{
			name:  "no range",
			input: "write",
			rest:  "write",
		},
		{
			name:    "single address",
			input:   "42",
			leftLen: 1,
		},
		{
			name:      "full range with command",
			input:     "1,5s/a/b/",
			leftLen:   1,
			rightLen:  1,
			separator: true,
			rest:      "s/a/b/",
		},
		{
			name:      "bare separator",
			input:     ",p",
			separator: true,
			rest:      "p",
		},
		{
			name:      "empty left side",
			input:     ",5d",
			rightLen:  1,
			separator: true,
			rest:      "d",
		},
		{
			name:      "offsets accumulate on a side",
			input:     "'a+1-2,'b+3",
			leftLen:   3,
			rightLen:  2,
			separator: true,
		},
		{
			name:    "percent",
			input:   "%s/x/y/g",
			leftLen: 1,
			rest:    "s/x/y/g",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, rest, err := Split(tt.input)
			if err != nil {
				t.Fatalf("Split(%q) returned error: %v", tt.input, err)
			}
			if len(r.Left) != tt.leftLen {
				t.Errorf("left side has %d tokens, expected %d", len(r.Left), tt.leftLen)
			}
			if len(r.Right) != tt.rightLen {
				t.Errorf("right side has %d tokens, expected %d", len(r.Right), tt.rightLen)
			}
			if r.HasSeparator != tt.separator {
				t.Errorf("separator = %v, expected %v", r.HasSeparator, tt.separator)
			}
			if rest != tt.rest {
				t.Errorf("rest = %q, expected %q", rest, tt.rest)
			}
		})
	}
}

func TestSplitErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"two primaries on left", "1 2"},
		{"two primaries on right", "1,2 3"},
		{"primary after mark", "'a5"},
		{"second separator", "1,2,3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Split(tt.input)
			if err == nil {
				t.Fatalf("Split(%q) expected error, got none", tt.input)
			}
			var parseErr *Error
			if !errors.As(err, &parseErr) {
				t.Fatalf("Split(%q) expected *parse.Error, got %T", tt.input, err)
			}
		})
	}
}

func TestEmpty(t *testing.T) {
	tests := []struct {
		name     string
		r        LineRange
		expected bool
	}{
		{"zero value", LineRange{}, true},
		{"separator only", LineRange{HasSeparator: true}, false},
		{"left only", LineRange{Left: []token.Token{{Kind: token.KindDot}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Empty(); got != tt.expected {
				t.Errorf("Empty() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestContainsPercent(t *testing.T) {
	r := LineRange{Right: []token.Token{{Kind: token.KindPercent}}}
	if !r.ContainsPercent() {
		t.Error("expected percent detected on right side")
	}
	if (LineRange{}).ContainsPercent() {
		t.Error("expected no percent in empty range")
	}
}
