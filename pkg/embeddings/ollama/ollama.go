// Package ollama embeds text through a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/papercomputeco/mnemo/pkg/buildinfo"
	"github.com/papercomputeco/mnemo/pkg/embeddings"
	"github.com/papercomputeco/mnemo/pkg/vector"
)

const (
	DefaultEmbeddingModel = "nomic-embed-text"
	DefaultBaseURL        = "http://localhost:11434"

	defaultTimeout = 60 * time.Second
	errBodyLimit   = 4096
)

// EmbedderConfig configures an Embedder. Empty fields take the defaults.
type EmbedderConfig struct {
	BaseURL string
	Model   string

	// Dimensions, when non-zero, is checked against every returned vector.
	Dimensions uint

	HTTPClient *http.Client
}

// Embedder calls Ollama's /api/embed endpoint.
type Embedder struct {
	endpoint   string
	model      string
	dimensions int
	client     *http.Client
}

// embedRequest.Input is a string or a list of strings.
type embedRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func NewEmbedder(cfg EmbedderConfig) (*Embedder, error) {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	return &Embedder{
		endpoint:   base + "/api/embed",
		model:      model,
		dimensions: int(cfg.Dimensions),
		client:     client,
	}, nil
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty input", vector.ErrEmbedding)
	}
	out, err := e.call(ctx, text, 1)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch sends every text in one request. Any blank text fails the batch.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("%w: empty input at %d", vector.ErrEmbedding, i)
		}
	}
	return e.call(ctx, texts, len(texts))
}

func (e *Embedder) call(ctx context.Context, input any, want int) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Model: e.model, Input: input})
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %v", vector.ErrEmbedding, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", vector.ErrEmbedding, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: sending request: %v", vector.ErrEmbedding, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
		return nil, fmt.Errorf("%w: ollama returned status %d: %s", vector.ErrEmbedding, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", vector.ErrEmbedding, err)
	}
	if len(out.Embeddings) != want {
		return nil, fmt.Errorf("%w: wanted %d embeddings, got %d", vector.ErrEmbedding, want, len(out.Embeddings))
	}

	for i, emb := range out.Embeddings {
		if len(emb) == 0 {
			return nil, fmt.Errorf("%w: empty embedding at %d", vector.ErrEmbedding, i)
		}
		if e.dimensions > 0 && len(emb) != e.dimensions {
			return nil, fmt.Errorf("%w: expected %d dimensions, got %d", vector.ErrEmbedding, e.dimensions, len(emb))
		}
	}
	return out.Embeddings, nil
}

func (e *Embedder) Close() error {
	return nil
}

var _ embeddings.BatchEmbedder = (*Embedder)(nil)
