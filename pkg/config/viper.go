package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/mnemo/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the MNEMO_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (MNEMO_ORACLE_MODEL, MNEMO_SERVER_LISTEN, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("MNEMO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper materializes a Config from the resolved viper chain.
func FromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Version: v.GetInt("version"),
		Oracle: OracleConfig{
			Provider: v.GetString("oracle.provider"),
			Model:    v.GetString("oracle.model"),
			BaseURL:  v.GetString("oracle.base_url"),
			Timeout:  v.GetString("oracle.timeout"),
		},
		Embedding: EmbeddingConfig{
			Provider:   v.GetString("embedding.provider"),
			Target:     v.GetString("embedding.target"),
			Model:      v.GetString("embedding.model"),
			Dimensions: v.GetUint("embedding.dimensions"),
		},
		VectorStore: VectorStoreConfig{
			Provider: v.GetString("vector_store.provider"),
			Path:     v.GetString("vector_store.path"),
			Target:   v.GetString("vector_store.target"),
		},
		Memory: MemoryConfig{
			Driver:           v.GetString("memory.driver"),
			LogPath:          v.GetString("memory.log_path"),
			DSN:              v.GetString("memory.dsn"),
			SimilarityFloor:  v.GetFloat64("memory.similarity_floor"),
			TopK:             v.GetUint("memory.top_k"),
			OverlapThreshold: v.GetFloat64("memory.overlap_threshold"),
		},
		Domain: DomainConfig{
			UserPath:          v.GetString("domain.user_path"),
			SelfPath:          v.GetString("domain.self_path"),
			ReconcileInterval: v.GetString("domain.reconcile_interval"),
			ActivationTimeout: v.GetString("domain.activation_timeout"),
		},
		Trust: TrustConfig{
			Enabled: v.GetBool("trust.enabled"),
			LogPath: v.GetString("trust.log_path"),
		},
		Events: EventsConfig{
			Provider: v.GetString("events.provider"),
			Brokers:  v.GetString("events.brokers"),
			Topic:    v.GetString("events.topic"),
		},
		Server: ServerConfig{
			Listen: v.GetString("server.listen"),
		},
	}
	applyDefaults(cfg)
	return cfg
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("oracle.provider", d.Oracle.Provider)
	v.SetDefault("oracle.model", d.Oracle.Model)
	v.SetDefault("oracle.base_url", d.Oracle.BaseURL)
	v.SetDefault("oracle.timeout", d.Oracle.Timeout)

	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)

	v.SetDefault("vector_store.provider", d.VectorStore.Provider)
	v.SetDefault("vector_store.path", d.VectorStore.Path)
	v.SetDefault("vector_store.target", d.VectorStore.Target)

	v.SetDefault("memory.driver", d.Memory.Driver)
	v.SetDefault("memory.log_path", d.Memory.LogPath)
	v.SetDefault("memory.dsn", d.Memory.DSN)
	v.SetDefault("memory.similarity_floor", d.Memory.SimilarityFloor)
	v.SetDefault("memory.top_k", d.Memory.TopK)
	v.SetDefault("memory.overlap_threshold", d.Memory.OverlapThreshold)

	v.SetDefault("domain.user_path", d.Domain.UserPath)
	v.SetDefault("domain.self_path", d.Domain.SelfPath)
	v.SetDefault("domain.reconcile_interval", d.Domain.ReconcileInterval)
	v.SetDefault("domain.activation_timeout", d.Domain.ActivationTimeout)

	v.SetDefault("trust.enabled", d.Trust.Enabled)
	v.SetDefault("trust.log_path", d.Trust.LogPath)

	v.SetDefault("events.provider", d.Events.Provider)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)

	v.SetDefault("server.listen", d.Server.Listen)
}
