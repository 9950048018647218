package logger

import (
	"io"
	"log/slog"
)

// Format selects the handler New builds.
type Format int

const (
	// FormatText is slog's key=value handler.
	FormatText Format = iota

	// FormatJSON is slog's JSON handler, used for files and the server.
	FormatJSON

	// FormatPretty is charmbracelet/log for interactive terminals.
	FormatPretty
)

// Option configures a logger created with New.
type Option func(*options)

// WithLevel sets the minimum level.
func WithLevel(level slog.Level) Option {
	return func(o *options) { o.level = level }
}

// WithDebug lowers the level to Debug when debug is set.
func WithDebug(debug bool) Option {
	if debug {
		return WithLevel(slog.LevelDebug)
	}
	return WithLevel(slog.LevelInfo)
}

func WithFormat(f Format) Option {
	return func(o *options) { o.format = f }
}

// WithPretty switches to FormatPretty. False leaves the format alone.
func WithPretty(pretty bool) Option {
	return func(o *options) {
		if pretty {
			o.format = FormatPretty
		}
	}
}

// WithJSON switches to FormatJSON. False leaves the format alone.
func WithJSON(json bool) Option {
	return func(o *options) {
		if json {
			o.format = FormatJSON
		}
	}
}

// WithWriter replaces the output, stdout by default.
func WithWriter(w io.Writer) Option {
	return WithWriters(w)
}

// WithWriters fans records out to every writer.
func WithWriters(w ...io.Writer) Option {
	return func(o *options) { o.writers = w }
}

// WithSource adds the caller's file:line.
func WithSource(source bool) Option {
	return func(o *options) { o.source = source }
}
