// Package dotdir manages the .mnemo/ and ~/.mnemo directories.
//
// The directory holds config.toml, the memory log, the persona domain
// documents and small bits of scheduler state that must survive restarts.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	dirName = ".mnemo"

	// HomeEnv points every command at one mnemo directory.
	HomeEnv = "MNEMO_HOME"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target resolves and creates the mnemo directory, returning its absolute
// path. The first candidate wins:
//  1. overrideDir
//  2. $MNEMO_HOME
//  3. ./.mnemo/ when it already exists
//  4. ~/.mnemo/
func (m *Manager) Target(overrideDir string) (string, error) {
	dir, err := m.candidate(overrideDir)
	if err != nil {
		return "", err
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", fmt.Errorf("creating mnemo directory %s: %w", abs, err)
	}
	return abs, nil
}

func (m *Manager) candidate(overrideDir string) (string, error) {
	if overrideDir != "" {
		return overrideDir, nil
	}
	if env := os.Getenv(HomeEnv); env != "" {
		return env, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	local := filepath.Join(cwd, dirName)
	if isDir(local) {
		return local, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
