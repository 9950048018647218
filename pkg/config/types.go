package config

import (
	"fmt"
	"strconv"
	"time"
)

// Config represents the persistent mnemo configuration stored as config.toml
// in the .mnemo/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Oracle      OracleConfig      `toml:"oracle"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Memory      MemoryConfig      `toml:"memory"`
	Domain      DomainConfig      `toml:"domain"`
	Trust       TrustConfig       `toml:"trust"`
	Events      EventsConfig      `toml:"events"`
	Server      ServerConfig      `toml:"server"`
}

// OracleConfig holds settings for the text completion backend that answers
// classification, extraction and activation prompts.
type OracleConfig struct {
	Provider string `toml:"provider,omitempty"`
	Model    string `toml:"model,omitempty"`
	BaseURL  string `toml:"base_url,omitempty"`
	Timeout  string `toml:"timeout,omitempty"`
}

// EmbeddingConfig holds embedding provider settings. An empty provider
// disables related-memory retrieval.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// VectorStoreConfig holds vector index settings. Provider is "memory",
// "sqlite" or "qdrant". Path is only used by sqlite and Target, the gRPC
// host:port, only by qdrant.
type VectorStoreConfig struct {
	Provider string `toml:"provider,omitempty"`
	Path     string `toml:"path,omitempty"`
	Target   string `toml:"target,omitempty"`
}

// MemoryConfig holds memory log and retrieval settings. Driver is "jsonl",
// "sqlite", "postgres" or the process-local "memory". LogPath is the jsonl
// file; DSN is the sqlite file or the postgres connection string.
type MemoryConfig struct {
	Driver           string  `toml:"driver,omitempty"`
	LogPath          string  `toml:"log_path,omitempty"`
	DSN              string  `toml:"dsn,omitempty"`
	SimilarityFloor  float64 `toml:"similarity_floor,omitempty"`
	TopK             uint    `toml:"top_k,omitempty"`
	OverlapThreshold float64 `toml:"overlap_threshold,omitempty"`
}

// DomainConfig holds persona domain persistence and scheduling settings.
type DomainConfig struct {
	UserPath          string `toml:"user_path,omitempty"`
	SelfPath          string `toml:"self_path,omitempty"`
	ReconcileInterval string `toml:"reconcile_interval,omitempty"`
	ActivationTimeout string `toml:"activation_timeout,omitempty"`
}

// TrustConfig holds trust scoring settings.
type TrustConfig struct {
	Enabled bool   `toml:"enabled"`
	LogPath string `toml:"log_path,omitempty"`
}

// EventsConfig holds memory event publishing settings. Provider is "nop"
// or "kafka"; Brokers is a comma separated list.
type EventsConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// ServerConfig holds HTTP API server settings.
type ServerConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// OracleTimeout parses the oracle timeout, falling back to the default.
func (c *Config) OracleTimeout() time.Duration {
	return parseDurationOr(c.Oracle.Timeout, defaultOracleTimeout)
}

// ReconcileInterval parses the domain reconcile interval, falling back to the default.
func (c *Config) ReconcileInterval() time.Duration {
	return parseDurationOr(c.Domain.ReconcileInterval, defaultReconcileInterval)
}

// ActivationTimeout parses the domain activation timeout, falling back to the default.
func (c *Config) ActivationTimeout() time.Duration {
	return parseDurationOr(c.Domain.ActivationTimeout, defaultActivationTimeout)
}

func parseDurationOr(s, fallback string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func durationKey(name string, field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = v
			return nil
		},
	}
}

func floatKey(name string, field func(c *Config) *float64) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatFloat(*field(c), 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			if f < 0 || f > 1 {
				return fmt.Errorf("invalid value for %s: must be within [0,1]", name)
			}
			*field(c) = f
			return nil
		},
	}
}

func uintKey(name string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"oracle.provider": stringKey(func(c *Config) *string { return &c.Oracle.Provider }),
	"oracle.model":    stringKey(func(c *Config) *string { return &c.Oracle.Model }),
	"oracle.base_url": stringKey(func(c *Config) *string { return &c.Oracle.BaseURL }),
	"oracle.timeout":  durationKey("oracle.timeout", func(c *Config) *string { return &c.Oracle.Timeout }),

	"embedding.provider":   stringKey(func(c *Config) *string { return &c.Embedding.Provider }),
	"embedding.target":     stringKey(func(c *Config) *string { return &c.Embedding.Target }),
	"embedding.model":      stringKey(func(c *Config) *string { return &c.Embedding.Model }),
	"embedding.dimensions": uintKey("embedding.dimensions", func(c *Config) *uint { return &c.Embedding.Dimensions }),

	"vector_store.provider": stringKey(func(c *Config) *string { return &c.VectorStore.Provider }),
	"vector_store.path":     stringKey(func(c *Config) *string { return &c.VectorStore.Path }),
	"vector_store.target":   stringKey(func(c *Config) *string { return &c.VectorStore.Target }),

	"memory.driver":            stringKey(func(c *Config) *string { return &c.Memory.Driver }),
	"memory.log_path":          stringKey(func(c *Config) *string { return &c.Memory.LogPath }),
	"memory.dsn":               stringKey(func(c *Config) *string { return &c.Memory.DSN }),
	"memory.similarity_floor":  floatKey("memory.similarity_floor", func(c *Config) *float64 { return &c.Memory.SimilarityFloor }),
	"memory.top_k":             uintKey("memory.top_k", func(c *Config) *uint { return &c.Memory.TopK }),
	"memory.overlap_threshold": floatKey("memory.overlap_threshold", func(c *Config) *float64 { return &c.Memory.OverlapThreshold }),

	"domain.user_path":          stringKey(func(c *Config) *string { return &c.Domain.UserPath }),
	"domain.self_path":          stringKey(func(c *Config) *string { return &c.Domain.SelfPath }),
	"domain.reconcile_interval": durationKey("domain.reconcile_interval", func(c *Config) *string { return &c.Domain.ReconcileInterval }),
	"domain.activation_timeout": durationKey("domain.activation_timeout", func(c *Config) *string { return &c.Domain.ActivationTimeout }),

	"trust.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Trust.Enabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for trust.enabled: %w", err)
			}
			c.Trust.Enabled = b
			return nil
		},
	},
	"trust.log_path": stringKey(func(c *Config) *string { return &c.Trust.LogPath }),

	"events.provider": stringKey(func(c *Config) *string { return &c.Events.Provider }),
	"events.brokers":  stringKey(func(c *Config) *string { return &c.Events.Brokers }),
	"events.topic":    stringKey(func(c *Config) *string { return &c.Events.Topic }),

	"server.listen": stringKey(func(c *Config) *string { return &c.Server.Listen }),
}
