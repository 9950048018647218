// Package jsonl provides a memory.Driver backed by an append-only file of
// newline-delimited JSON records.
package jsonl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/papercomputeco/mnemo/pkg/logger"
	"github.com/papercomputeco/mnemo/pkg/memory"
)

// legacyNamespace seeds IDs for lines written without one.
var legacyNamespace = uuid.MustParse("6f1c59a4-3c0e-4b8e-9d2a-7c5e1f0b8a43")

// Config holds configuration for the JSONL driver.
type Config struct {
	// Path is the log file. Its parent directory is created if missing.
	Path string

	Logger *slog.Logger
}

// Driver implements memory.Driver over a single file. Each record is one
// line written with a single write call.
type Driver struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewDriver prepares the log file's directory. The file itself is created on
// first append.
func NewDriver(cfg Config) (*Driver, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("%w: empty log path", memory.ErrNotConfigured)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Driver{path: cfg.Path, logger: log}, nil
}

// Path returns the log file path.
func (d *Driver) Path() string {
	return d.path
}

func (d *Driver) Append(_ context.Context, rec memory.Record) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	line = append(line, '\n')

	d.mu.Lock()
	defer d.mu.Unlock()

	f, err := os.OpenFile(d.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("writing log: %w", err)
	}
	return f.Close()
}

// ReadAll returns every parseable line. A missing file is an empty log.
// Corrupt lines are logged and skipped; lines without an id get one derived
// from their bytes so repeated reads agree.
func (d *Driver) ReadAll(ctx context.Context) ([]memory.Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	f, err := os.Open(d.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []memory.Record{}, nil
		}
		return nil, fmt.Errorf("opening log: %w", err)
	}
	defer f.Close()

	recs := []memory.Record{}
	r := bufio.NewReader(f)
	for lineNo := 1; ; lineNo++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line, readErr := r.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, fmt.Errorf("reading log: %w", readErr)
		}

		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			if rec, ok := d.decode(trimmed, lineNo); ok {
				recs = append(recs, rec)
			}
		}

		if readErr != nil {
			break
		}
	}
	return recs, nil
}

func (d *Driver) decode(line []byte, lineNo int) (memory.Record, bool) {
	var rec memory.Record
	if err := json.Unmarshal(line, &rec); err != nil {
		d.logger.Warn("skipping corrupt memory line", "path", d.path, "line", lineNo, "error", err)
		return memory.Record{}, false
	}
	if rec.ID == "" {
		rec.ID = uuid.NewSHA1(legacyNamespace, line).String()
	}
	if rec.Keywords == nil {
		rec.Keywords = []string{}
	}
	return rec, true
}

// Clear truncates the log.
func (d *Driver) Clear(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := os.Truncate(d.path, 0); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("truncating log: %w", err)
	}
	return nil
}

// Close is a no-op; the file is opened per operation.
func (d *Driver) Close() error {
	return nil
}

var _ memory.Driver = (*Driver)(nil)
