// Package mcp provides an MCP (Model Context Protocol) server exposing the
// mnemo memory log to agents.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/mnemo/pkg/buildinfo"
	"github.com/papercomputeco/mnemo/pkg/logger"
	"github.com/papercomputeco/mnemo/pkg/memory"
)

// Memories is the slice of the memory store the tools read from.
// *memory.Store satisfies it.
type Memories interface {
	RetrieveRelated(ctx context.Context, query string, topK int) ([]memory.Related, error)
	RetrievalEnabled() bool
	Find(ctx context.Context, ref string) (memory.Record, error)
}

type Config struct {
	Memories Memories

	// DefaultTopK is used when a recall leaves top_k unset.
	DefaultTopK int

	// Noop serves the protocol with no tools.
	Noop bool

	Logger *slog.Logger
}

type Server struct {
	config  Config
	logger  *slog.Logger
	handler *mcp.StreamableHTTPHandler
}

// NewServer builds a stateless streamable HTTP MCP server exposing
// memory_recall and memory_show.
func NewServer(c Config) (*Server, error) {
	if !c.Noop && c.Memories == nil {
		return nil, errors.New("memories are required")
	}
	if c.DefaultTopK <= 0 {
		c.DefaultTopK = defaultTopK
	}

	s := &Server{
		config: c,
		logger: logger.Component(c.Logger, "mcp"),
	}

	server := mcp.NewServer(&mcp.Implementation{Name: "mnemo", Version: buildinfo.Version}, &mcp.ServerOptions{})
	if !c.Noop {
		s.register(server)
	}

	s.handler = mcp.NewStreamableHTTPHandler(
		func(*http.Request) *mcp.Server { return server },
		&mcp.StreamableHTTPOptions{Stateless: true},
	)
	return s, nil
}

func (s *Server) register(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        memoryRecallToolName,
		Description: memoryRecallDescription,
	}, s.handleMemoryRecall)

	mcp.AddTool(server, &mcp.Tool{
		Name:        memoryShowToolName,
		Description: memoryShowDescription,
	}, s.handleMemoryShow)
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}
