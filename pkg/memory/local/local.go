// Package local provides an in-process implementation of the memory.Driver
// interface. Records live only as long as the process, which suits tests and
// sessions that should leave nothing behind.
package local

import (
	"context"
	"slices"
	"sync"

	"github.com/papercomputeco/mnemo/pkg/memory"
)

// Driver implements memory.Driver using an in-process slice.
type Driver struct {
	mu      sync.RWMutex
	records []memory.Record
}

// NewDriver creates an empty local driver.
func NewDriver() *Driver {
	return &Driver{}
}

// Append stores a copy of rec.
func (d *Driver) Append(_ context.Context, rec memory.Record) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records = append(d.records, clone(rec))
	return nil
}

// ReadAll returns copies so callers cannot mutate stored records.
func (d *Driver) ReadAll(_ context.Context) ([]memory.Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]memory.Record, len(d.records))
	for i, r := range d.records {
		result[i] = clone(r)
	}
	return result, nil
}

func (d *Driver) Clear(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records = nil
	return nil
}

// Close is a no-op for the in-process driver.
func (d *Driver) Close() error {
	return nil
}

func clone(r memory.Record) memory.Record {
	r.Keywords = append([]string{}, r.Keywords...)
	if r.Info != nil {
		r.Info = &memory.InfoBlock{
			Key:   slices.Clone(r.Info.Key),
			Aux:   slices.Clone(r.Info.Aux),
			Noise: slices.Clone(r.Info.Noise),
		}
	}
	return r
}

var _ memory.Driver = (*Driver)(nil)
