package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/mnemo/pkg/memory"
)

const (
	defaultTopK = 3
	maxTopK     = 20
)

const (
	memoryRecallToolName    = "memory_recall"
	memoryRecallDescription = "Recall memories from past conversations held by mnemo. Given a free-text query, returns the stored topics most similar to it, best first, each with its similarity score. Use this to bring back what the user said earlier about a subject."

	memoryShowToolName    = "memory_show"
	memoryShowDescription = "Show one stored mnemo memory in full. The ref is a memory id, a unique id prefix, or \"latest\" for the most recent memory."
)

// MemoryRecallInput represents the input arguments for the MCP memory_recall tool.
type MemoryRecallInput struct {
	Query string `json:"query" jsonschema:"free text describing what to recall"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"maximum number of memories to return"`
}

// MemoryRecallOutput represents the structured output of a memory recall.
type MemoryRecallOutput struct {
	Memories []memory.Related `json:"memories"`
}

type MemoryShowInput struct {
	Ref string `json:"ref" jsonschema:"memory id, unique id prefix, or latest"`
}

type MemoryShowOutput struct {
	Memory *memory.Record `json:"memory,omitempty"`
}

func (s *Server) handleMemoryRecall(ctx context.Context, _ *mcp.CallToolRequest, input MemoryRecallInput) (*mcp.CallToolResult, MemoryRecallOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return errorResult("query is required"), MemoryRecallOutput{}, nil
	}
	if !s.config.Memories.RetrievalEnabled() {
		return errorResult("memory retrieval is not configured: set embedding.provider"), MemoryRecallOutput{}, nil
	}

	topK := input.TopK
	if topK <= 0 {
		topK = s.config.DefaultTopK
	}
	topK = min(topK, maxTopK)

	related, err := s.config.Memories.RetrieveRelated(ctx, query, topK)
	if err != nil {
		s.logger.Warn("memory recall failed", "query", query, "error", err)
		return errorResult(fmt.Sprintf("Memory recall failed: %v", err)), MemoryRecallOutput{}, nil
	}
	if related == nil {
		related = []memory.Related{}
	}

	s.logger.Debug("memory recall", "query", query, "hits", len(related))
	out := MemoryRecallOutput{Memories: related}
	return jsonResult(out), out, nil
}

func (s *Server) handleMemoryShow(ctx context.Context, _ *mcp.CallToolRequest, input MemoryShowInput) (*mcp.CallToolResult, MemoryShowOutput, error) {
	ref := strings.TrimSpace(input.Ref)
	if ref == "" {
		ref = memory.LatestRef
	}

	rec, err := s.config.Memories.Find(ctx, ref)
	switch {
	case errors.Is(err, memory.ErrEmptyLog), errors.Is(err, memory.ErrRecordNotFound), errors.Is(err, memory.ErrAmbiguousRef):
		return errorResult(err.Error()), MemoryShowOutput{}, nil
	case err != nil:
		s.logger.Warn("memory show failed", "ref", ref, "error", err)
		return errorResult(fmt.Sprintf("Memory lookup failed: %v", err)), MemoryShowOutput{}, nil
	}

	out := MemoryShowOutput{Memory: &rec}
	return jsonResult(out), out, nil
}

func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to serialize results: %v", err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}
