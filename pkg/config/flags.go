package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --oracle-model
// on both "mnemo chat" and "mnemo serve").
type Flag struct {
	// Name is the long flag name (e.g. "oracle-model").
	Name string

	// Shorthand is the one-letter short flag (e.g. "m"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "oracle.model").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagOracleProvider  = "oracle-provider"
	FlagOracleModel     = "oracle-model"
	FlagOracleBaseURL   = "oracle-base-url"
	FlagEmbeddingProv   = "embedding-provider"
	FlagEmbeddingTgt    = "embedding-target"
	FlagEmbeddingModel  = "embedding-model"
	FlagEmbeddingDims   = "embedding-dimensions"
	FlagVectorStoreProv = "vector-store-provider"
	FlagVectorStorePath = "vector-store-path"
	FlagVectorStoreTgt  = "vector-store-target"
	FlagMemoryDriver    = "memory-driver"
	FlagMemoryLog       = "memory-log"
	FlagMemoryDSN       = "memory-dsn"
	FlagEventsProvider  = "events-provider"
	FlagEventsBrokers   = "events-brokers"
	FlagListen          = "listen"
)

// CommonFlags is the flag set shared by every command that builds a session.
var CommonFlags = FlagSet{
	FlagOracleProvider:  {Name: "oracle-provider", ViperKey: "oracle.provider", Description: "Oracle provider (openai, anthropic, ollama)"},
	FlagOracleModel:     {Name: "oracle-model", Shorthand: "m", ViperKey: "oracle.model", Description: "Oracle model name"},
	FlagOracleBaseURL:   {Name: "oracle-base-url", ViperKey: "oracle.base_url", Description: "Oracle provider base URL"},
	FlagEmbeddingProv:   {Name: "embedding-provider", ViperKey: "embedding.provider", Description: "Embedding provider (ollama, or empty to disable retrieval)"},
	FlagEmbeddingTgt:    {Name: "embedding-target", ViperKey: "embedding.target", Description: "Embedding provider URL"},
	FlagEmbeddingModel:  {Name: "embedding-model", ViperKey: "embedding.model", Description: "Embedding model name"},
	FlagEmbeddingDims:   {Name: "embedding-dimensions", ViperKey: "embedding.dimensions", Description: "Embedding dimensionality"},
	FlagVectorStoreProv: {Name: "vector-store-provider", ViperKey: "vector_store.provider", Description: "Vector index provider (memory, sqlite, qdrant)"},
	FlagVectorStorePath: {Name: "vector-store-path", ViperKey: "vector_store.path", Description: "Path to the sqlite vector index"},
	FlagVectorStoreTgt:  {Name: "vector-store-target", ViperKey: "vector_store.target", Description: "Qdrant gRPC address (host:port)"},
	FlagMemoryDriver:    {Name: "memory-driver", ViperKey: "memory.driver", Description: "Memory log backend (jsonl, sqlite, postgres, memory)"},
	FlagMemoryDSN:       {Name: "memory-dsn", ViperKey: "memory.dsn", Description: "SQLite file or PostgreSQL connection string for the memory log"},
	FlagMemoryLog:       {Name: "memory-log", ViperKey: "memory.log_path", Description: "Path to the memory JSONL log"},
	FlagEventsProvider:  {Name: "events-provider", ViperKey: "events.provider", Description: "Memory event publisher (nop, kafka)"},
	FlagEventsBrokers:   {Name: "events-brokers", ViperKey: "events.brokers", Description: "Comma separated kafka brokers"},
	FlagListen:          {Name: "listen", Shorthand: "l", ViperKey: "server.listen", Description: "Address for the API server to listen on"},
}

// SessionFlagKeys lists the CommonFlags entries that configure a session.
var SessionFlagKeys = []string{
	FlagOracleProvider,
	FlagOracleModel,
	FlagOracleBaseURL,
	FlagEmbeddingProv,
	FlagEmbeddingTgt,
	FlagEmbeddingModel,
	FlagEmbeddingDims,
	FlagVectorStoreProv,
	FlagVectorStorePath,
	FlagVectorStoreTgt,
	FlagMemoryDriver,
	FlagMemoryLog,
	FlagMemoryDSN,
	FlagEventsProvider,
	FlagEventsBrokers,
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// SessionFlags holds the per-command overrides for session settings.
type SessionFlags struct {
	oracleProvider string
	oracleModel    string
	oracleBaseURL  string

	embeddingProvider string
	embeddingTarget   string
	embeddingModel    string
	embeddingDims     uint

	vectorStoreProvider string
	vectorStorePath     string
	vectorStoreTarget   string

	memoryDriver   string
	memoryLog      string
	memoryDSN      string
	eventsProvider string
	eventsBrokers  string
}

// Register adds every SessionFlagKeys flag to cmd.
func (f *SessionFlags) Register(cmd *cobra.Command) {
	AddStringFlag(cmd, CommonFlags, FlagOracleProvider, &f.oracleProvider)
	AddStringFlag(cmd, CommonFlags, FlagOracleModel, &f.oracleModel)
	AddStringFlag(cmd, CommonFlags, FlagOracleBaseURL, &f.oracleBaseURL)
	AddStringFlag(cmd, CommonFlags, FlagEmbeddingProv, &f.embeddingProvider)
	AddStringFlag(cmd, CommonFlags, FlagEmbeddingTgt, &f.embeddingTarget)
	AddStringFlag(cmd, CommonFlags, FlagEmbeddingModel, &f.embeddingModel)
	AddUintFlag(cmd, CommonFlags, FlagEmbeddingDims, &f.embeddingDims)
	AddStringFlag(cmd, CommonFlags, FlagVectorStoreProv, &f.vectorStoreProvider)
	AddStringFlag(cmd, CommonFlags, FlagVectorStorePath, &f.vectorStorePath)
	AddStringFlag(cmd, CommonFlags, FlagVectorStoreTgt, &f.vectorStoreTarget)
	AddStringFlag(cmd, CommonFlags, FlagMemoryDriver, &f.memoryDriver)
	AddStringFlag(cmd, CommonFlags, FlagMemoryLog, &f.memoryLog)
	AddStringFlag(cmd, CommonFlags, FlagMemoryDSN, &f.memoryDSN)
	AddStringFlag(cmd, CommonFlags, FlagEventsProvider, &f.eventsProvider)
	AddStringFlag(cmd, CommonFlags, FlagEventsBrokers, &f.eventsBrokers)
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	v := viper.New()
	setViperDefaults(v)
	return v.GetUint(viperKey)
}
