package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	stateFile = "state.json"
)

// State is scheduler bookkeeping persisted between process runs.
type State struct {
	// LastReconcile is when the persona domains were last reconciled
	// from the memory log. Zero means never.
	LastReconcile time.Time `json:"last_reconcile"`
}

// LoadState loads the state from a target .mnemo/state.json.
// Returns nil, nil if no state has been saved yet.
func (m *Manager) LoadState(overrideDir string) (*State, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, stateFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading state: %w", err)
	}

	state := &State{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parsing state: %w", err)
	}

	return state, nil
}

// SaveState persists the state to a target .mnemo/state.json.
func (m *Manager) SaveState(state *State, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil state")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, stateFile), data, 0o600); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}

	return nil
}

// ReconcileClock reads and records the last reconcile time in one target
// directory's state file.
type ReconcileClock struct {
	m   *Manager
	dir string
}

// ReconcileClock binds the state file of a target directory.
func (m *Manager) ReconcileClock(overrideDir string) *ReconcileClock {
	return &ReconcileClock{m: m, dir: overrideDir}
}

// LastReconcile returns the zero time if nothing was recorded.
func (c *ReconcileClock) LastReconcile() (time.Time, error) {
	state, err := c.m.LoadState(c.dir)
	if err != nil || state == nil {
		return time.Time{}, err
	}
	return state.LastReconcile, nil
}

func (c *ReconcileClock) MarkReconciled(t time.Time) error {
	state, err := c.m.LoadState(c.dir)
	if err != nil {
		return err
	}
	if state == nil {
		state = &State{}
	}
	state.LastReconcile = t
	return c.m.SaveState(state, c.dir)
}
