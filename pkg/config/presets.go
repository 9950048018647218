package config

import (
	"fmt"
	"sort"
)

// presets are starting configurations for mnemo init, keyed by oracle
// provider. Embeddings stay on the local ollama defaults for every preset.
var presets = map[string]func(c *Config){
	"ollama": func(_ *Config) {},
	"openai": func(c *Config) {
		c.Oracle.Provider = "openai"
		c.Oracle.Model = "gpt-4o-mini"
		c.Oracle.BaseURL = "https://api.openai.com"
	},
	"anthropic": func(c *Config) {
		c.Oracle.Provider = "anthropic"
		c.Oracle.Model = "claude-3-5-haiku-latest"
		c.Oracle.BaseURL = "https://api.anthropic.com"
	},
}

// PresetNames returns the built-in preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preset returns the default config adjusted for the named preset.
func Preset(name string) (*Config, error) {
	apply, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset: %q (valid presets: %v)", name, PresetNames())
	}
	cfg := NewDefaultConfig()
	apply(cfg)
	return cfg, nil
}
