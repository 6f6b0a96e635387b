// Package main is the entry point for the exline command-line editor.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"golang.org/x/term"

	"github.com/dshills/exline/internal/config"
	"github.com/dshills/exline/internal/editor"
	"github.com/dshills/exline/internal/editor/membuf"
	"github.com/dshills/exline/internal/ex"
	"github.com/dshills/exline/internal/ex/history"
	"github.com/dshills/exline/internal/integration/vimrpc"
	"github.com/dshills/exline/internal/logging"
	"github.com/dshills/exline/internal/script/lua"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

// options collects the parsed command line.
type options struct {
	configPath string
	logLevel   string
	vim        bool
	commands   commandList
	file       string
}

// commandList accumulates repeated -c flags in order.
type commandList []string

func (c *commandList) String() string { return strings.Join(*c, "; ") }

func (c *commandList) Set(v string) error {
	*c = append(*c, v)
	return nil
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// Flags win over file and environment.
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.vim {
		cfg.Vim.Enabled = true
	}

	interactive := len(opts.commands) == 0 && term.IsTerminal(int(os.Stdin.Fd()))

	logOut, closeLog, err := openLogOutput(cfg.Log, interactive)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closeLog()

	logger := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Output: logOut,
		Prefix: "exline",
	})

	var doc *membuf.Document
	if opts.file != "" {
		doc, err = membuf.Load(opts.file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	} else {
		doc = membuf.New(nil)
	}

	ectx := doc.Context()
	ectx.Session.SubstituteGlobal = cfg.Substitute.GlobalDefault
	ectx.Session.IgnoreCase = cfg.Substitute.IgnoreCase
	ectx.Session.ExpandTab = cfg.Editor.ExpandTab

	engineOpts := ex.Options{
		History: history.New(cfg.History.Dir, cfg.History.MaxEntries, logger),
		Logger:  logger,
	}

	if cfg.Vim.Enabled {
		sess := vimrpc.NewSession(vimrpc.Config{
			Command: cfg.Vim.Path,
			Args:    cfg.Vim.Args,
			Logger:  logger,
		})
		defer sess.Close()
		engineOpts.Backend = sess
	}

	runtime := lua.New(logger)
	defer runtime.Close()
	engineOpts.Lua = runtime

	engine := ex.New(engineOpts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		cancel()
	}()

	if interactive {
		if err := runTerminal(ctx, engine, ectx, doc, opts.configPath, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	runBatch(ctx, engine, ectx, doc, opts.commands)
	return 0
}

func parseFlags() options {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file (.toml, .yaml)")
	flag.Var(&opts.commands, "c", "Command to execute (repeatable, runs in order)")
	flag.BoolVar(&opts.vim, "vim", false, "Enable delegation to an external Vim process")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "exline - ex command-line editor\n\n")
		fmt.Fprintf(os.Stderr, "Usage: exline [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  exline file.txt                          Edit interactively\n")
		fmt.Fprintf(os.Stderr, "  exline -c '%%s/old/new/g' -c wq file.txt  Batch edit and save\n")
		fmt.Fprintf(os.Stderr, "  exline -vim file.txt                     Delegate unknown commands to Vim\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("exline %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if opts.logLevel != "" {
		switch opts.logLevel {
		case "debug", "info", "warn", "error":
		default:
			fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.logLevel)
			os.Exit(1)
		}
	}

	if args := flag.Args(); len(args) > 0 {
		if len(args) > 1 {
			fmt.Fprintf(os.Stderr, "Error: expected at most one file argument, got %d\n", len(args))
			os.Exit(1)
		}
		opts.file = args[0]
	}

	return opts
}

// openLogOutput resolves where logs go. A configured file always wins;
// otherwise interactive sessions discard logs to keep the prompt clean
// and batch runs log to stderr.
func openLogOutput(cfg config.LogConfig, interactive bool) (io.Writer, func(), error) {
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		return f, func() { f.Close() }, nil
	}
	if interactive {
		return io.Discard, func() {}, nil
	}
	return os.Stderr, func() {}, nil
}

// statusWriter prints command status lines to a writer.
type statusWriter struct {
	w io.Writer
}

func (s statusWriter) ShowStatus(msg string) {
	fmt.Fprintln(s.w, msg)
}

// runBatch executes the -c commands (or piped stdin lines) in order,
// stopping once a command requests quit. Command failures surface as
// status text, never as a process failure.
func runBatch(ctx context.Context, engine *ex.Engine, ectx *editor.Context, doc *membuf.Document, commands []string) {
	ectx.Status = statusWriter{os.Stdout}

	if len(commands) > 0 {
		for _, cmd := range commands {
			if asked, _ := doc.QuitRequested(); asked {
				return
			}
			if ctx.Err() != nil {
				return
			}
			engine.Run(ctx, cmd, ectx)
		}
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if asked, _ := doc.QuitRequested(); asked {
			return
		}
		if ctx.Err() != nil {
			return
		}
		engine.Run(ctx, scanner.Text(), ectx)
	}
}

// runTerminal drives the interactive :-prompt loop on a raw terminal.
func runTerminal(ctx context.Context, engine *ex.Engine, ectx *editor.Context, doc *membuf.Document, configPath string, logger *logging.Logger) error {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("entering raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	rw := struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}
	t := term.NewTerminal(rw, ":")

	ectx.Status = statusWriter{t}

	var eof bool
	ectx.Prompt = editor.PrompterFunc(func(ctx context.Context, prefix, initial string) (string, bool, error) {
		t.SetPrompt(prefix)
		line, err := t.ReadLine()
		if err != nil {
			if err == io.EOF {
				eof = true
				return "", false, nil
			}
			return "", false, err
		}
		return line, true, nil
	})

	// Hot-reload session options when the config file changes. The new
	// config is staged here and applied on the prompt goroutine.
	var pending atomic.Pointer[config.Config]
	if configPath != "" {
		w, err := config.Watch(configPath, logger, func(c config.Config) {
			pending.Store(&c)
		})
		if err != nil {
			logger.Warn("config watch disabled: %v", err)
		} else {
			defer w.Close()
		}
	}

	ectx.ShowStatus(openingStatus(doc))

	for {
		if asked, _ := doc.QuitRequested(); asked || eof || ctx.Err() != nil {
			return nil
		}
		if c := pending.Swap(nil); c != nil {
			applyConfig(*c, ectx.Session, logger)
		}
		engine.PromptAndRun(ctx, "", ectx)
	}
}

func applyConfig(cfg config.Config, session *editor.Session, logger *logging.Logger) {
	session.SubstituteGlobal = cfg.Substitute.GlobalDefault
	session.IgnoreCase = cfg.Substitute.IgnoreCase
	session.ExpandTab = cfg.Editor.ExpandTab
	logger.SetLevel(logging.ParseLevel(cfg.Log.Level))
}

func openingStatus(doc *membuf.Document) string {
	if doc.Path() == "" {
		return "[No File]"
	}
	return fmt.Sprintf("%q %dL", doc.Path(), doc.LineCount())
}
