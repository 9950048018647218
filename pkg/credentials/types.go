package credentials

import "time"

// Credentials is the on-disk shape of credentials.toml.
type Credentials struct {
	Version   int                           `toml:"version"`
	Providers map[string]ProviderCredential `toml:"providers"`
}

// ProviderCredential is one stored key.
type ProviderCredential struct {
	APIKey    string    `toml:"api_key"`
	UpdatedAt time.Time `toml:"updated_at,omitempty"`
}

// Provider describes a service mnemo can hold a key for.
type Provider struct {
	Name   string
	EnvVar string

	// Use is what mnemo talks to the provider for, shown by `mnemo auth`.
	Use string

	// Optional providers work without a key, so Resolve never fails for them.
	Optional bool
}
