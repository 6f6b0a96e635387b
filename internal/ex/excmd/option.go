package excmd

import (
	"fmt"
	"strings"

	"github.com/dshills/exline/internal/editor"
)

// setOp is what one :set argument does to its option.
type setOp uint8

const (
	setOn setOp = iota
	setOff
	setToggle
	setShow
)

// setArg is one parsed :set argument.
type setArg struct {
	name string
	op   setOp
}

// Set changes boolean session options. Supported forms are "opt",
// "noopt", "invopt", "opt!" and "opt?"; value assignments and unknown
// options are unsupported syntax so the backend can take them.
type Set struct {
	base
	args []setArg
}

func newSet(bang bool, tail string) (Command, error) {
	var args []setArg
	for _, f := range strings.Fields(tail) {
		arg, err := parseSetArg(f)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return &Set{base: base{name: "set", bang: bang}, args: args}, nil
}

// Execute applies every parsed argument to the session. Query forms
// accumulate into the returned status text.
func (c *Set) Execute(ctx *editor.Context) (string, error) {
	if len(c.args) == 0 {
		return showOptions(ctx.Session), nil
	}

	var shown []string
	for _, a := range c.args {
		opt, ok := lookupOption(a.name)
		if !ok {
			return "", fmt.Errorf("%w: unknown option %q", ErrUnsupported, a.name)
		}
		switch a.op {
		case setOn:
			*opt.value(ctx.Session) = true
		case setOff:
			*opt.value(ctx.Session) = false
		case setToggle:
			v := opt.value(ctx.Session)
			*v = !*v
		case setShow:
			shown = append(shown, formatOption(opt.name, *opt.value(ctx.Session)))
		}
	}
	return strings.Join(shown, " "), nil
}

// parseSetArg decodes one :set argument into an option name and
// operation.
func parseSetArg(f string) (setArg, error) {
	if strings.ContainsAny(f, "=:") {
		return setArg{}, fmt.Errorf("%w: set argument %q", ErrUnsupported, f)
	}
	switch {
	case strings.HasSuffix(f, "?"):
		return setArg{name: strings.TrimSuffix(f, "?"), op: setShow}, nil
	case strings.HasSuffix(f, "!"):
		return setArg{name: strings.TrimSuffix(f, "!"), op: setToggle}, nil
	case strings.HasPrefix(f, "inv"):
		return setArg{name: strings.TrimPrefix(f, "inv"), op: setToggle}, nil
	case strings.HasPrefix(f, "no"):
		return setArg{name: strings.TrimPrefix(f, "no"), op: setOff}, nil
	default:
		return setArg{name: f, op: setOn}, nil
	}
}

// option binds a boolean option name to its session field.
type option struct {
	name  string
	short string
	value func(*editor.Session) *bool
}

// options is the closed set of boolean options :set understands.
var options = []option{
	{name: "gdefault", short: "gd", value: func(s *editor.Session) *bool { return &s.SubstituteGlobal }},
	{name: "ignorecase", short: "ic", value: func(s *editor.Session) *bool { return &s.IgnoreCase }},
	{name: "expandtab", short: "et", value: func(s *editor.Session) *bool { return &s.ExpandTab }},
}

// lookupOption finds an option by its full or short name.
func lookupOption(name string) (option, bool) {
	for _, o := range options {
		if name == o.name || name == o.short {
			return o, true
		}
	}
	return option{}, false
}

// showOptions renders the state of every option.
func showOptions(s *editor.Session) string {
	parts := make([]string, len(options))
	for i, o := range options {
		parts[i] = formatOption(o.name, *o.value(s))
	}
	return strings.Join(parts, " ")
}

// formatOption renders one option state the way :set displays it.
func formatOption(name string, on bool) string {
	if on {
		return name
	}
	return "no" + name
}

// NoHLSearch turns off highlighting of the last search pattern until
// the next search.
type NoHLSearch struct {
	base
}

func newNoHLSearch(bang bool, tail string) (Command, error) {
	if err := rejectTail("nohlsearch", tail); err != nil {
		return nil, err
	}
	return &NoHLSearch{base{name: "nohlsearch", bang: bang}}, nil
}

// Execute clears the highlight flag. The last search pattern itself is
// kept.
func (c *NoHLSearch) Execute(ctx *editor.Context) (string, error) {
	ctx.Session.SearchHighlight = false
	return "", nil
}
