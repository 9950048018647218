// Package api provides the HTTP API for driving a mnemo session and
// inspecting its memory log.
package api

import "time"

const (
	defaultReadTimeout     = 30 * time.Second
	defaultShutdownTimeout = 10 * time.Second

	// Turns carry whole conversation rounds, not files.
	defaultBodyLimit = 1 << 20
)

// Config is the API server configuration. Zero durations and limits take
// the package defaults.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8765")
	ListenAddr string

	// DisableMCP serves an MCP endpoint with no tools.
	DisableMCP bool

	// ReadTimeout bounds reading one request. Oracle calls happen after the
	// read, so it does not cap a slow turn.
	ReadTimeout time.Duration

	// ShutdownTimeout bounds how long Shutdown waits for in-flight turns.
	ShutdownTimeout time.Duration

	// BodyLimit caps request bodies in bytes.
	BodyLimit int
}

func (c Config) withDefaults() Config {
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = defaultReadTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
	if c.BodyLimit <= 0 {
		c.BodyLimit = defaultBodyLimit
	}
	return c
}
