// Package credentials stores provider API keys in the dot dir and resolves
// the key a session should use.
package credentials

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/mnemo/pkg/dotdir"
)

// ErrMissingKey is returned when no API key can be found for a provider.
var ErrMissingKey = errors.New("no api key configured")

const (
	credentialsFile = "credentials.toml"

	currentVersion = 0
)

// Manager reads and writes credentials.toml in the .mnemo/ directory.
type Manager struct {
	targetPath string
	now        func() time.Time
}

// NewManager resolves the dot dir through override, or the usual lookup
// when override is empty.
func NewManager(override string) (*Manager, error) {
	target, err := dotdir.NewManager().Target(override)
	if err != nil {
		return nil, err
	}
	return &Manager{
		targetPath: filepath.Join(target, credentialsFile),
		now:        time.Now,
	}, nil
}

// Load returns empty credentials when the file does not exist.
func (m *Manager) Load() (*Credentials, error) {
	creds := &Credentials{Version: currentVersion}

	data, err := os.ReadFile(m.targetPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading credentials: %w", err)
	default:
		if err := toml.Unmarshal(data, creds); err != nil {
			return nil, fmt.Errorf("parsing credentials: %w", err)
		}
	}

	if creds.Providers == nil {
		creds.Providers = make(map[string]ProviderCredential)
	}
	return creds, nil
}

// Save replaces credentials.toml through a temp file with 0600 permissions.
func (m *Manager) Save(creds *Credentials) error {
	if creds == nil {
		return errors.New("cannot save nil credentials")
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(creds); err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	tmp := m.targetPath + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	if err := os.Rename(tmp, m.targetPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}

func (m *Manager) update(fn func(*Credentials) error) error {
	creds, err := m.Load()
	if err != nil {
		return err
	}
	if err := fn(creds); err != nil {
		return err
	}
	return m.Save(creds)
}

func (m *Manager) SetKey(provider, key string) error {
	return m.update(func(c *Credentials) error {
		c.Providers[provider] = ProviderCredential{APIKey: key, UpdatedAt: m.now().UTC()}
		return nil
	})
}

// GetKey returns "" when nothing is stored for provider.
func (m *Manager) GetKey(provider string) (string, error) {
	creds, err := m.Load()
	if err != nil {
		return "", err
	}
	return creds.Providers[provider].APIKey, nil
}

// RemoveKey fails with ErrMissingKey when nothing is stored for provider.
func (m *Manager) RemoveKey(provider string) error {
	return m.update(func(c *Credentials) error {
		if _, ok := c.Providers[provider]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingKey, provider)
		}
		delete(c.Providers, provider)
		return nil
	})
}

// ListProviders returns the stored provider names, sorted.
func (m *Manager) ListProviders() ([]string, error) {
	creds, err := m.Load()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(creds.Providers))
	for name := range creds.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// GetTarget returns the path of credentials.toml.
func (m *Manager) GetTarget() string {
	return m.targetPath
}

// Resolve picks the API key for a provider: explicit, then stored, then the
// provider's environment variable. Unknown providers (ollama) and optional
// ones without a key resolve to "".
func (m *Manager) Resolve(provider, explicit string) (string, error) {
	p, known := Lookup(provider)
	if explicit != "" || !known {
		return explicit, nil
	}

	if m != nil {
		key, err := m.GetKey(provider)
		if err != nil {
			return "", err
		}
		if key != "" {
			return key, nil
		}
	}

	if key := os.Getenv(p.EnvVar); key != "" {
		return key, nil
	}
	if p.Optional {
		return "", nil
	}

	return "", fmt.Errorf("%w: %s (run `mnemo auth %s` or set %s)",
		ErrMissingKey, provider, provider, p.EnvVar)
}
