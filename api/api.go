package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/mnemo/api/mcp"
	"github.com/papercomputeco/mnemo/pkg/logger"
	"github.com/papercomputeco/mnemo/pkg/session"
)

// Server is the API server in front of one mnemo session.
type Server struct {
	config  Config
	session *session.Session
	logger  *slog.Logger
	app     *fiber.App
}

// NewServer creates a new API server. The session is injected so the
// server shares it with whatever else the process runs.
func NewServer(config Config, sess *session.Session, log *slog.Logger) (*Server, error) {
	if sess == nil {
		return nil, errors.New("session is required")
	}
	if log == nil {
		log = logger.Nop()
	}
	config = config.withDefaults()

	mcpServer, err := mcp.NewServer(mcp.Config{
		Memories: sess.Store(),
		Noop:     config.DisableMCP,
		Logger:   log,
	})
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           config.ReadTimeout,
		BodyLimit:             config.BodyLimit,
	})

	s := &Server{
		config:  config,
		session: sess,
		logger:  log,
		app:     app,
	}

	app.Get("/ping", s.handlePing)

	v1 := app.Group("/v1")
	v1.Post("/turns", s.handleCommitTurn)
	v1.Post("/context", s.handlePrepare)

	v1.Get("/memories", s.handleListMemories)
	v1.Get("/memories/latest", s.handleLatestMemory)
	v1.Get("/memories/active", s.handleActiveTopic)
	v1.Get("/memories/related", s.handleRelatedMemories)
	v1.Get("/memories/:ref", s.handleGetMemory)
	v1.Delete("/memories", s.handleClearMemories)
	v1.Delete("/memories/active", s.handleResetActive)
	v1.Post("/memories/flush", s.handleFlush)

	v1.Post("/domains/reconcile", s.handleReconcile)

	app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown stops accepting requests and waits up to ShutdownTimeout for
// in-flight ones.
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(s.config.ShutdownTimeout)
}
