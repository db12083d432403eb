// Package log provides structured logging output for the virtual machine, the
// assembler and the command-line tools built on top of them.
package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Re-exported slog types so callers only ever need to import this package.
type (
	Logger = slog.Logger
	Value  = slog.Value
	Attr   = slog.Attr
	Level  = slog.Level
)

var (
	// DefaultLogger returns the default, global logger. Components may call it once during
	// construction and cache the result; the default does not change after startup.
	DefaultLogger = func() *Logger { return NewFormattedLogger(os.Stderr) }

	// SetDefault overrides the default logger used by slog's package-level functions.
	SetDefault = slog.SetDefault

	// LogLevel holds the current minimum level. It may be changed at runtime, e.g. from a
	// LOGLEVEL environment variable or a -loglevel flag.
	LogLevel = &slog.LevelVar{}
)

// Attribute and value constructors, re-exported for convenience.
var (
	String     = slog.String
	Group      = slog.Group
	GroupValue = slog.GroupValue
	Any        = slog.Any
	AnyValue   = slog.AnyValue
	Int        = slog.Int
)

// Level aliases.
const (
	Debug = slog.LevelDebug
	Info  = slog.LevelInfo
	Warn  = slog.LevelWarn
	Error = slog.LevelError
)

// NewFormattedLogger returns a logger that writes column-aligned, human-readable records to out.
func NewFormattedLogger(out io.Writer) *Logger {
	return slog.New(NewHandler(out))
}

// Handler is a slog.Handler that renders each record as a small block of labelled fields rather
// than a single line of key=value pairs. It reads better in a terminal when tracing an
// instruction-by-instruction run of the machine.
type Handler struct {
	mu   *sync.Mutex
	out  io.Writer
	opts *slog.HandlerOptions

	group string
	attrs []Attr
}

// Options are the default handler options: source locations included, level governed by LogLevel.
var Options = &slog.HandlerOptions{
	AddSource:   true,
	Level:       LogLevel,
	ReplaceAttr: func(_ []string, a Attr) Attr { return a },
}

// NewHandler creates a Handler writing to out.
func NewHandler(out io.Writer) *Handler {
	return &Handler{
		out:  out,
		mu:   new(sync.Mutex),
		opts: Options,
	}
}

func (h *Handler) Enabled(_ context.Context, level Level) bool {
	return level >= h.opts.Level.Level()
}

// Handle formats and writes a single log record.
func (h *Handler) Handle(_ context.Context, rec slog.Record) error {
	buf := bytes.NewBuffer(make([]byte, 0, 512))

	if !rec.Time.IsZero() {
		fmt.Fprintf(buf, "%9s : %s\n", "time", rec.Time.Format(time.RFC3339Nano))
	}

	fmt.Fprintf(buf, "%9s : %s\n", "level", rec.Level.String())

	if h.opts.AddSource && rec.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{rec.PC})
		f, _ := frames.Next()
		_, file := path.Split(f.File)
		fmt.Fprintf(buf, "%9s : %s:%d\n", "source", file, f.Line)
	}

	fmt.Fprintf(buf, "%9s : %s\n", "message", rec.Message)

	for _, a := range h.attrs {
		if err := h.appendAttr(buf, a, false); err != nil {
			return err
		}
	}

	rec.Attrs(func(a Attr) bool {
		_ = h.appendAttr(buf, a, false)
		return true
	})

	fmt.Fprintln(buf)

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.out.Write(buf.Bytes())

	return err
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	attrs := make([]Attr, len(h.attrs))
	copy(attrs, h.attrs)

	return &Handler{mu: h.mu, out: h.out, opts: h.opts, attrs: attrs, group: name}
}

func (h *Handler) WithAttrs(attrs []Attr) slog.Handler {
	merged := make([]Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)

	return &Handler{mu: h.mu, out: h.out, opts: h.opts, attrs: merged, group: h.group}
}

func (h *Handler) appendAttr(out io.Writer, attr Attr, nested bool) error {
	attr.Value = attr.Value.Resolve()
	attr = h.opts.ReplaceAttr([]string{h.group}, attr)

	if attr.Equal(Attr{}) {
		return nil
	}

	key := strings.ToUpper(attr.Key)

	if attr.Value.Kind() != slog.KindGroup {
		if nested {
			fmt.Fprint(out, "  ")
		}

		_, err := fmt.Fprintf(out, "%9s : %v\n", key, attr.Value.Any())

		return err
	}

	if key != "" {
		if _, err := fmt.Fprintf(out, "%9s :\n", key); err != nil {
			return err
		}

		nested = true
	}

	for _, a := range attr.Value.Group() {
		if err := h.appendAttr(out, a, nested); err != nil {
			return err
		}
	}

	return nil
}

// Loggable is implemented by components that accept a logger after construction.
type Loggable interface {
	WithLogger(*Logger)
}
