// Package app assembles a mnemo session from configuration. Commands and
// the API server share it so every front end runs the same pipeline.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/papercomputeco/mnemo/pkg/config"
	"github.com/papercomputeco/mnemo/pkg/credentials"
	"github.com/papercomputeco/mnemo/pkg/domain"
	"github.com/papercomputeco/mnemo/pkg/dotdir"
	"github.com/papercomputeco/mnemo/pkg/embeddings"
	"github.com/papercomputeco/mnemo/pkg/embeddings/ollama"
	"github.com/papercomputeco/mnemo/pkg/eventstream"
	"github.com/papercomputeco/mnemo/pkg/eventstream/kafka"
	"github.com/papercomputeco/mnemo/pkg/eventstream/nop"
	"github.com/papercomputeco/mnemo/pkg/logger"
	"github.com/papercomputeco/mnemo/pkg/memory"
	"github.com/papercomputeco/mnemo/pkg/memory/jsonl"
	"github.com/papercomputeco/mnemo/pkg/memory/local"
	"github.com/papercomputeco/mnemo/pkg/memory/postgres"
	"github.com/papercomputeco/mnemo/pkg/memory/sqlite"
	"github.com/papercomputeco/mnemo/pkg/oracle"
	"github.com/papercomputeco/mnemo/pkg/session"
	"github.com/papercomputeco/mnemo/pkg/trust"
	"github.com/papercomputeco/mnemo/pkg/vector"
	"github.com/papercomputeco/mnemo/pkg/vector/inmemory"
	"github.com/papercomputeco/mnemo/pkg/vector/qdrant"
	"github.com/papercomputeco/mnemo/pkg/vector/sqlitevec"
)

const (
	// defaultSQLiteLog is the sqlite memory log when memory.dsn is empty.
	defaultSQLiteLog = "memory_store.sqlite"

	logConnectTimeout = 10 * time.Second
)

// Options controls Open.
type Options struct {
	// ConfigDir overrides dot dir resolution.
	ConfigDir string

	// Config is the resolved configuration, normally from config.FromViper.
	Config *config.Config

	// Oracle replaces the configured provider. Tests use it.
	Oracle oracle.Oracle

	Logger *slog.Logger
}

// App holds a fully wired session and the parts front ends reach into.
type App struct {
	Config    *config.Config
	Dir       string
	Oracle    oracle.Oracle
	Store     *memory.Store
	Domains   *domain.Manager
	Trust     *trust.Manager
	Session   *session.Session
	Responder *session.Responder

	logger *slog.Logger
}

// Open builds every component named by the config. Relative paths are
// anchored in the dot dir.
func Open(opts Options) (*App, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	cfger, err := config.NewConfiger(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	cfg := opts.Config
	if cfg == nil {
		if cfg, err = cfger.LoadConfig(); err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	o := opts.Oracle
	if o == nil {
		if o, err = newOracle(cfg, opts.ConfigDir); err != nil {
			return nil, err
		}
	}
	timeout := cfg.OracleTimeout()

	domains, err := domain.NewManager(domain.Config{
		UserPath:          cfger.ResolvePath(cfg.Domain.UserPath),
		SelfPath:          cfger.ResolvePath(cfg.Domain.SelfPath),
		Oracle:            o,
		OracleTimeout:     timeout,
		ActivationTimeout: cfg.ActivationTimeout(),
		ReconcileInterval: cfg.ReconcileInterval(),
		Clock:             dotdir.NewManager().ReconcileClock(cfger.Dir()),
		Logger:            logger.Component(log, "domain"),
	})
	if err != nil {
		return nil, fmt.Errorf("loading domains: %w", err)
	}

	store, err := newStore(cfg, cfger, domains, log)
	if err != nil {
		return nil, err
	}

	builder, err := memory.NewBuilder(memory.BuilderConfig{
		Store:            store,
		Oracle:           memory.OracleConfig{Oracle: o, Timeout: timeout, Logger: logger.Component(log, "builder")},
		OverlapThreshold: cfg.Memory.OverlapThreshold,
		Logger:           logger.Component(log, "builder"),
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	var tm *trust.Manager
	if cfg.Trust.Enabled {
		tm, err = trust.NewManager(trust.Config{
			LogPath: cfger.ResolvePath(cfg.Trust.LogPath),
			Oracle:  o,
			Timeout: timeout,
			Logger:  logger.Component(log, "trust"),
		})
		if err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	sess, err := session.New(session.Config{
		Store:   store,
		Builder: builder,
		Domains: domains,
		Trust:   tm,
		TopK:    int(cfg.Memory.TopK),
		Logger:  logger.Component(log, "session"),
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &App{
		Config:    cfg,
		Dir:       cfger.Dir(),
		Oracle:    o,
		Store:     store,
		Domains:   domains,
		Trust:     tm,
		Session:   sess,
		Responder: session.NewResponder(o, timeout, logger.Component(log, "responder")),
		logger:    log,
	}, nil
}

// Close flushes the active topic, then releases the store.
func (a *App) Close(ctx context.Context) error {
	return errors.Join(a.Session.Close(ctx), a.Store.Close())
}

// OpenStore opens the memory store alone, with no oracle and no worthiness
// gate. Inspection commands use it so they work without provider keys.
func OpenStore(configDir string, cfg *config.Config, log *slog.Logger) (*memory.Store, error) {
	if log == nil {
		log = logger.Nop()
	}
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}
	if cfg == nil {
		if cfg, err = cfger.LoadConfig(); err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}
	return newStore(cfg, cfger, nil, log)
}

// LogPath returns the memory log path cfg resolves to under configDir.
func LogPath(configDir string, cfg *config.Config) (string, error) {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}
	return cfger.ResolvePath(cfg.Memory.LogPath), nil
}

func newOracle(cfg *config.Config, configDir string) (oracle.Oracle, error) {
	creds, err := credentials.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}
	key, err := creds.Resolve(cfg.Oracle.Provider, "")
	if err != nil {
		return nil, err
	}

	o, err := oracle.NewCaller(oracle.CallerConfig{
		Provider: cfg.Oracle.Provider,
		Model:    cfg.Oracle.Model,
		BaseURL:  cfg.Oracle.BaseURL,
		APIKey:   key,
	})
	if err != nil {
		return nil, fmt.Errorf("creating oracle: %w", err)
	}
	return o, nil
}

func newStore(cfg *config.Config, cfger *config.Configer, gate memory.WorthinessGate, log *slog.Logger) (*memory.Store, error) {
	driver, err := NewLogDriver(cfg, cfger, log)
	if err != nil {
		return nil, err
	}

	embedder, err := NewEmbedder(cfg.Embedding)
	if err != nil {
		_ = driver.Close()
		return nil, err
	}

	var vectors vector.Driver
	if embedder != nil {
		if vectors, err = NewVectorDriver(cfg, cfger, log); err != nil {
			_ = driver.Close()
			return nil, err
		}
	}

	publisher, err := NewPublisher(cfg.Events, log)
	if err != nil {
		_ = driver.Close()
		if vectors != nil {
			_ = vectors.Close()
		}
		return nil, err
	}

	return memory.NewStore(memory.StoreConfig{
		Driver:          driver,
		Embedder:        embedder,
		Vectors:         vectors,
		SimilarityFloor: cfg.Memory.SimilarityFloor,
		Gate:            gate,
		Publisher:       publisher,
		Logger:          logger.Component(log, "store"),
	})
}

// NewLogDriver opens the memory log backend named by memory.driver.
func NewLogDriver(cfg *config.Config, cfger *config.Configer, log *slog.Logger) (memory.Driver, error) {
	if log == nil {
		log = logger.Nop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), logConnectTimeout)
	defer cancel()

	switch cfg.Memory.Driver {
	case "", "jsonl":
		d, err := jsonl.NewDriver(jsonl.Config{
			Path:   cfger.ResolvePath(cfg.Memory.LogPath),
			Logger: logger.Component(log, "jsonl"),
		})
		if err != nil {
			return nil, fmt.Errorf("opening memory log: %w", err)
		}
		return d, nil
	case "memory":
		log.Warn("memory log is in-process only; nothing will outlive this session")
		return local.NewDriver(), nil
	case "sqlite":
		dsn := cfg.Memory.DSN
		if dsn == "" {
			dsn = defaultSQLiteLog
		}
		if dsn != ":memory:" {
			dsn = cfger.ResolvePath(dsn)
		}
		d, err := sqlite.NewDriver(ctx, dsn, logger.Component(log, "sqlite"))
		if err != nil {
			return nil, fmt.Errorf("opening memory log: %w", err)
		}
		return d, nil
	case "postgres":
		if cfg.Memory.DSN == "" {
			return nil, fmt.Errorf("%w: memory.dsn is required for postgres", memory.ErrNotConfigured)
		}
		d, err := postgres.NewDriver(ctx, cfg.Memory.DSN, logger.Component(log, "postgres"))
		if err != nil {
			return nil, fmt.Errorf("opening memory log: %w", err)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unsupported memory driver: %s", cfg.Memory.Driver)
	}
}

// NewEmbedder returns nil when retrieval is disabled.
func NewEmbedder(cfg config.EmbeddingConfig) (embeddings.Embedder, error) {
	switch cfg.Provider {
	case "", "none":
		return nil, nil
	case "ollama":
		e, err := ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL:    cfg.Target,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("creating embedder: %w", err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("%w: %s", embeddings.ErrUnsupportedProvider, cfg.Provider)
	}
}

func NewVectorDriver(cfg *config.Config, cfger *config.Configer, log *slog.Logger) (vector.Driver, error) {
	switch cfg.VectorStore.Provider {
	case "", "memory":
		return inmemory.NewDriver(), nil
	case "sqlite":
		d, err := sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:     cfger.ResolvePath(cfg.VectorStore.Path),
			Dimensions: cfg.Embedding.Dimensions,
			Logger:     logger.Component(log, "sqlitevec"),
		})
		if err != nil {
			return nil, fmt.Errorf("opening vector index: %w", err)
		}
		return d, nil
	case "qdrant":
		creds, err := credentials.NewManager(cfger.Dir())
		if err != nil {
			return nil, fmt.Errorf("loading credentials: %w", err)
		}
		key, err := creds.Resolve("qdrant", "")
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), logConnectTimeout)
		defer cancel()
		d, err := qdrant.NewDriver(ctx, qdrant.Config{
			Target:     cfg.VectorStore.Target,
			APIKey:     key,
			Dimensions: cfg.Embedding.Dimensions,
			Logger:     logger.Component(log, "qdrant"),
		})
		if err != nil {
			return nil, fmt.Errorf("opening vector index: %w", err)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", cfg.VectorStore.Provider)
	}
}

func NewPublisher(cfg config.EventsConfig, log *slog.Logger) (eventstream.Publisher, error) {
	switch cfg.Provider {
	case "", "nop":
		return nop.NewPublisher(), nil
	case "kafka":
		p, err := kafka.NewPublisher(kafka.Config{
			Brokers: cfg.Brokers,
			Topic:   cfg.Topic,
			Logger:  logger.Component(log, "kafka"),
		})
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported events provider: %s", cfg.Provider)
	}
}
