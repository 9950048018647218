package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/mnemo/pkg/memory"
)

const maxRelated = 20

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// TurnRequest is one finished exchange to commit.
type TurnRequest struct {
	User  string `json:"user"`
	Agent string `json:"agent"`
}

// ContextRequest asks for the reply context of an input.
type ContextRequest struct {
	Input string `json:"input"`
}

// MemoriesResponse lists records from the log.
type MemoriesResponse struct {
	Memories []memory.Record `json:"memories"`
	Count    int             `json:"count"`
}

// RelatedResponse lists retrieval hits, best first.
type RelatedResponse struct {
	Query    string           `json:"query"`
	Memories []memory.Related `json:"memories"`
}

// FlushResponse reports whether flushing wrote a record.
type FlushResponse struct {
	Saved bool `json:"saved"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleCommitTurn feeds a finished round to the memory builder.
func (s *Server) handleCommitTurn(c *fiber.Ctx) error {
	var req TurnRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.User) == "" && strings.TrimSpace(req.Agent) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "user or agent text required"})
	}

	outcome := s.session.Commit(c.Context(), req.User, req.Agent)
	return c.JSON(outcome)
}

// handlePrepare returns the reply context bundle for an input.
func (s *Server) handlePrepare(c *fiber.Ctx) error {
	var req ContextRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.Input) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "input required"})
	}

	return c.JSON(s.session.Prepare(c.Context(), req.Input))
}

// handleListMemories returns every readable record in append order.
func (s *Server) handleListMemories(c *fiber.Ctx) error {
	recs, err := s.session.Store().LoadAll(c.Context())
	if err != nil {
		s.logger.Error("could not load memories", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to load memories"})
	}
	if recs == nil {
		recs = []memory.Record{}
	}
	return c.JSON(MemoriesResponse{Memories: recs, Count: len(recs)})
}

// handleLatestMemory returns the most recently persisted record.
func (s *Server) handleLatestMemory(c *fiber.Ctx) error {
	rec, err := s.session.Store().Latest(c.Context())
	if err != nil {
		s.logger.Error("could not load latest memory", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to load memories"})
	}
	if rec == nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "no memories stored"})
	}
	return c.JSON(rec)
}

// handleGetMemory resolves a full id or a unique id prefix.
func (s *Server) handleGetMemory(c *fiber.Ctx) error {
	rec, err := s.session.Store().Find(c.Context(), c.Params("ref"))
	switch {
	case errors.Is(err, memory.ErrEmptyLog), errors.Is(err, memory.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error()})
	case errors.Is(err, memory.ErrAmbiguousRef):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Error: err.Error()})
	case err != nil:
		s.logger.Error("could not load memories", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to load memories"})
	}
	return c.JSON(rec)
}

// handleActiveTopic returns the topic currently being built.
func (s *Server) handleActiveTopic(c *fiber.Ctx) error {
	active := s.session.Store().Active()
	if active == nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "no active topic"})
	}
	return c.JSON(active)
}

// handleRelatedMemories ranks stored records against the q parameter.
func (s *Server) handleRelatedMemories(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "query parameter 'q' is required"})
	}

	store := s.session.Store()
	if !store.RetrievalEnabled() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "memory retrieval is not configured"})
	}

	k := c.QueryInt("k", 3)
	if k <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "k must be positive"})
	}
	k = min(k, maxRelated)

	related, err := store.RetrieveRelated(c.Context(), query, k)
	if err != nil {
		s.logger.Error("related memory lookup failed", "query", query, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to retrieve memories"})
	}
	if related == nil {
		related = []memory.Related{}
	}
	return c.JSON(RelatedResponse{Query: query, Memories: related})
}

// handleClearMemories empties the log and resets the conversation.
func (s *Server) handleClearMemories(c *fiber.Ctx) error {
	if err := s.session.Clear(c.Context()); err != nil {
		s.logger.Error("could not clear memories", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to clear memories"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleResetActive drops the active topic without persisting it.
func (s *Server) handleResetActive(c *fiber.Ctx) error {
	s.session.Reset()
	return c.SendStatus(fiber.StatusNoContent)
}

// handleFlush persists the active topic.
func (s *Server) handleFlush(c *fiber.Ctx) error {
	saved, err := s.session.Flush(c.Context())
	if err != nil {
		s.logger.Error("could not flush active topic", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to flush active topic"})
	}
	return c.JSON(FlushResponse{Saved: saved})
}

// handleReconcile folds the memory log into both persona domains now.
func (s *Server) handleReconcile(c *fiber.Ctx) error {
	report, err := s.session.Reconcile(c.Context())
	if err != nil {
		s.logger.Error("domain reconcile failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to reconcile domains"})
	}
	return c.JSON(report)
}
