// Package logger builds the slog loggers mnemo commands and services share.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	charmlog "github.com/charmbracelet/log"
	"golang.org/x/term"
)

type options struct {
	level   slog.Level
	format  Format
	source  bool
	writers []io.Writer
}

// New builds a logger. Without options it writes info-level text to stdout.
func New(opts ...Option) *slog.Logger {
	o := &options{level: slog.LevelInfo}
	for _, opt := range opts {
		opt(o)
	}
	return slog.New(o.handler(o.writer()))
}

func (o *options) writer() io.Writer {
	switch len(o.writers) {
	case 0:
		return os.Stdout
	case 1:
		return o.writers[0]
	default:
		return io.MultiWriter(o.writers...)
	}
}

func (o *options) handler(w io.Writer) slog.Handler {
	switch o.format {
	case FormatPretty:
		return charmlog.NewWithOptions(w, charmlog.Options{
			ReportTimestamp: true,
			ReportCaller:    o.source,
			Level:           charmlog.Level(o.level),
		})
	case FormatJSON:
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: o.level, AddSource: o.source})
	default:
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: o.level, AddSource: o.source})
	}
}

// ForTerminal writes to stderr, pretty only when stderr is a terminal.
func ForTerminal(debug bool) *slog.Logger {
	return New(
		WithWriter(os.Stderr),
		WithDebug(debug),
		WithPretty(term.IsTerminal(int(os.Stderr.Fd()))),
	)
}

// OpenFile appends JSON records to path, creating its directory. Callers
// close the returned file when the logger is no longer used.
func OpenFile(path string, opts ...Option) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	opts = append([]Option{WithFormat(FormatJSON)}, opts...)
	opts = append(opts, WithWriter(f))
	return New(opts...), f, nil
}

// Component tags log with the component name. A nil log yields Nop.
func Component(log *slog.Logger, name string) *slog.Logger {
	if log == nil {
		return Nop()
	}
	return log.With("component", name)
}

// Nop discards every record.
func Nop() *slog.Logger {
	return slog.New(nopHandler{})
}

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (h nopHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h nopHandler) WithGroup(string) slog.Handler           { return h }
