package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/mnemo/pkg/dotdir"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

type Configer struct {
	ddm        *dotdir.Manager
	targetDir  string
	targetPath string
}

func NewConfiger(override string) (*Configer, error) {
	cfger := &Configer{}

	cfger.ddm = dotdir.NewManager()
	target, err := cfger.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	// If no .mnemo/ directory was resolved, targetPath stays empty;
	// LoadConfig will return defaults and SaveConfig will error clearly.
	if target == "" {
		return cfger, nil
	}

	path := filepath.Join(target, configFile)
	_, err = os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfger.targetDir = target
	cfger.targetPath = path

	return cfger, nil
}

// ValidConfigKeys returns the list of all supported configuration key names
// in the order they appear in config.toml.
func ValidConfigKeys() []string {
	ordered := []string{
		"oracle.provider",
		"oracle.model",
		"oracle.base_url",
		"oracle.timeout",
		"embedding.provider",
		"embedding.target",
		"embedding.model",
		"embedding.dimensions",
		"vector_store.provider",
		"vector_store.path",
		"vector_store.target",
		"memory.driver",
		"memory.log_path",
		"memory.dsn",
		"memory.similarity_floor",
		"memory.top_k",
		"memory.overlap_threshold",
		"domain.user_path",
		"domain.self_path",
		"domain.reconcile_interval",
		"domain.activation_timeout",
		"trust.enabled",
		"trust.log_path",
		"events.provider",
		"events.brokers",
		"events.topic",
		"server.listen",
	}

	result := make([]string, 0, len(configKeys))
	seen := make(map[string]bool, len(configKeys))
	for _, k := range ordered {
		if _, ok := configKeys[k]; ok {
			result = append(result, k)
			seen[k] = true
		}
	}

	for k := range configKeys {
		if !seen[k] {
			result = append(result, k)
		}
	}

	return result
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// Dir returns the resolved .mnemo/ directory, or "" when none was found.
func (c *Configer) Dir() string {
	return c.targetDir
}

// ResolvePath anchors a relative data path in the .mnemo/ directory.
// Absolute paths and paths with no resolved directory are returned as-is.
func (c *Configer) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || c.targetDir == "" {
		return p
	}
	return filepath.Join(c.targetDir, p)
}

// LoadConfig loads the configuration from config.toml in the target .mnemo/ directory.
// If the file does not exist, returns NewDefaultConfig() so callers always receive
// a fully-populated Config. Fields explicitly set in the file override the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	if c.targetPath == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults fills zero-value fields in cfg with values from NewDefaultConfig().
// Booleans are left alone since false is a meaningful explicit value.
func applyDefaults(cfg *Config) {
	d := NewDefaultConfig()

	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}

	fill(&cfg.Oracle.Provider, d.Oracle.Provider)
	fill(&cfg.Oracle.Model, d.Oracle.Model)
	fill(&cfg.Oracle.BaseURL, d.Oracle.BaseURL)
	fill(&cfg.Oracle.Timeout, d.Oracle.Timeout)

	fill(&cfg.Embedding.Provider, d.Embedding.Provider)
	fill(&cfg.Embedding.Target, d.Embedding.Target)
	fill(&cfg.Embedding.Model, d.Embedding.Model)
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = d.Embedding.Dimensions
	}

	fill(&cfg.VectorStore.Provider, d.VectorStore.Provider)
	fill(&cfg.VectorStore.Path, d.VectorStore.Path)
	fill(&cfg.VectorStore.Target, d.VectorStore.Target)

	fill(&cfg.Memory.Driver, d.Memory.Driver)
	fill(&cfg.Memory.LogPath, d.Memory.LogPath)
	if cfg.Memory.SimilarityFloor == 0 {
		cfg.Memory.SimilarityFloor = d.Memory.SimilarityFloor
	}
	if cfg.Memory.TopK == 0 {
		cfg.Memory.TopK = d.Memory.TopK
	}
	if cfg.Memory.OverlapThreshold == 0 {
		cfg.Memory.OverlapThreshold = d.Memory.OverlapThreshold
	}

	fill(&cfg.Domain.UserPath, d.Domain.UserPath)
	fill(&cfg.Domain.SelfPath, d.Domain.SelfPath)
	fill(&cfg.Domain.ReconcileInterval, d.Domain.ReconcileInterval)
	fill(&cfg.Domain.ActivationTimeout, d.Domain.ActivationTimeout)

	fill(&cfg.Trust.LogPath, d.Trust.LogPath)

	fill(&cfg.Events.Provider, d.Events.Provider)
	fill(&cfg.Events.Topic, d.Events.Topic)

	fill(&cfg.Server.Listen, d.Server.Listen)
}

// SaveConfig persists the configuration to config.toml in the target .mnemo/ directory.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	if c.targetPath == "" {
		return errors.New("cannot save empty target path")
	}

	data, err := EncodeTOML(cfg)
	if err != nil {
		return err
	}

	if err := os.WriteFile(c.targetPath, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

// ConfigValues loads the config once and renders every valid key.
func (c *Configer) ConfigValues() (map[string]string, error) {
	cfg, err := c.LoadConfig()
	if err != nil {
		return nil, err
	}

	values := make(map[string]string, len(configKeys))
	for key, info := range configKeys {
		values[key] = info.get(cfg)
	}
	return values, nil
}

// DefaultConfigValue renders the built-in value of key.
func DefaultConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}
	return info.get(NewDefaultConfig()), nil
}

// EncodeTOML renders cfg in the config.toml layout.
func EncodeTOML(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseConfigTOML parses raw TOML bytes into a Config.
// Returns an error if the version field is present and not equal to CurrentV.
func ParseConfigTOML(data []byte) (*Config, error) {
	// Trust scoring stays on unless the file turns it off.
	cfg := &Config{Trust: TrustConfig{Enabled: true}}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	return cfg, nil
}
