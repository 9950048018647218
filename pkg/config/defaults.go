package config

const (
	defaultOracleProvider = "ollama"
	defaultOracleModel    = "qwen2.5:7b"
	defaultOracleBaseURL  = "http://localhost:11434"
	defaultOracleTimeout  = "30s"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "nomic-embed-text"
	defaultEmbeddingDimensions = 768

	defaultVectorProvider = "memory"
	defaultVectorPath     = "vectors.sqlite"
	defaultVectorTarget   = "localhost:6334"

	defaultMemoryDriver      = "jsonl"
	defaultMemoryLogPath     = "memory_store.jsonl"
	defaultSimilarityFloor   = 0.35
	defaultTopK              = 3
	defaultOverlapThreshold  = 0.3
	defaultUserDomainPath    = "user_domain.json"
	defaultSelfDomainPath    = "self_domain.json"
	defaultReconcileInterval = "24h"
	defaultActivationTimeout = "30s"

	defaultTrustLogPath = "trust.jsonl"

	defaultEventsProvider = "nop"
	defaultEventsTopic    = "mnemo.memories"

	defaultServerListen = ":8765"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Oracle: OracleConfig{
			Provider: defaultOracleProvider,
			Model:    defaultOracleModel,
			BaseURL:  defaultOracleBaseURL,
			Timeout:  defaultOracleTimeout,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		VectorStore: VectorStoreConfig{
			Provider: defaultVectorProvider,
			Path:     defaultVectorPath,
			Target:   defaultVectorTarget,
		},
		Memory: MemoryConfig{
			Driver:           defaultMemoryDriver,
			LogPath:          defaultMemoryLogPath,
			SimilarityFloor:  defaultSimilarityFloor,
			TopK:             defaultTopK,
			OverlapThreshold: defaultOverlapThreshold,
		},
		Domain: DomainConfig{
			UserPath:          defaultUserDomainPath,
			SelfPath:          defaultSelfDomainPath,
			ReconcileInterval: defaultReconcileInterval,
			ActivationTimeout: defaultActivationTimeout,
		},
		Trust: TrustConfig{
			Enabled: true,
			LogPath: defaultTrustLogPath,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
		Server: ServerConfig{
			Listen: defaultServerListen,
		},
	}
}
