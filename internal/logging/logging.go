// Package logging provides leveled, field-carrying logging for exline.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// Level is the severity of a log message.
type Level int32

const (
	// LevelDebug is for detailed debugging information.
	LevelDebug Level = iota
	// LevelInfo is for general informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

// String returns the level name.
func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel maps a configuration string onto a Level. Unknown strings
// fall back to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// field is one key=value pair attached to a logger.
type field struct {
	key   string
	value any
}

// Logger writes timestamped, leveled lines to a single output. Loggers
// derived with WithField share the parent's level, so a runtime level
// change reaches every component.
type Logger struct {
	level    *atomic.Int32
	output   io.Writer
	prefix   string
	fields   []field
	disabled bool
}

// Nop discards everything.
var Nop = &Logger{disabled: true}

// Config configures a logger.
type Config struct {
	// Level is the minimum level written.
	Level Level
	// Output receives log lines. Defaults to os.Stderr.
	Output io.Writer
	// Prefix is prepended to every message.
	Prefix string
}

// New creates a logger.
func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	level := new(atomic.Int32)
	level.Store(int32(cfg.Level))
	return &Logger{
		level:  level,
		output: cfg.Output,
		prefix: cfg.Prefix,
	}
}

// SetLevel changes the minimum level for this logger and every logger
// derived from it.
func (l *Logger) SetLevel(level Level) {
	if l.level != nil {
		l.level.Store(int32(level))
	}
}

// WithField returns a derived logger that carries key=value on every
// line. Fields render in the order they were added; setting an existing
// key replaces its value.
func (l *Logger) WithField(key string, value any) *Logger {
	child := *l
	child.fields = append([]field(nil), l.fields...)
	for i := range child.fields {
		if child.fields[i].key == key {
			child.fields[i].value = value
			return &child
		}
	}
	child.fields = append(child.fields, field{key: key, value: value})
	return &child
}

// WithComponent returns a derived logger tagged with the component name.
func (l *Logger) WithComponent(component string) *Logger {
	return l.WithField("component", component)
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args...) }

// Info logs an info message.
func (l *Logger) Info(msg string, args ...any) { l.log(LevelInfo, msg, args...) }

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) { l.log(LevelWarn, msg, args...) }

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) { l.log(LevelError, msg, args...) }

func (l *Logger) log(level Level, msg string, args ...any) {
	if l.disabled || l.output == nil || l.level == nil {
		return
	}
	if level < Level(l.level.Load()) {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	var b strings.Builder
	b.WriteString(time.Now().Format("2006-01-02T15:04:05.000"))
	b.WriteString(" [")
	b.WriteString(level.String())
	b.WriteString("] ")
	if l.prefix != "" {
		b.WriteString(l.prefix)
		b.WriteString(": ")
	}
	b.WriteString(msg)
	for i, f := range l.fields {
		if i == 0 {
			b.WriteString(" {")
		} else {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", f.key, f.value)
	}
	if len(l.fields) > 0 {
		b.WriteByte('}')
	}
	b.WriteByte('\n')

	// One Write per line keeps concurrent component output intact.
	_, _ = io.WriteString(l.output, b.String())
}
