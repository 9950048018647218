package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/papercomputeco/mnemo/pkg/buildinfo"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"

	defaultTemperature = 0.3
	defaultMaxTokens   = 512
)

// CallerConfig holds configuration for an HTTP backed oracle.
type CallerConfig struct {
	Provider    string  // "openai", "anthropic", or "ollama"
	Model       string  // e.g. "gpt-4o-mini", "qwen2.5:7b"
	APIKey      string  // resolved API key, unused by ollama
	BaseURL     string  // override base URL
	Temperature float64 // sampling temperature, defaults to 0.3
	MaxTokens   int     // completion budget, defaults to 512

	// HTTPClient overrides http.DefaultClient.
	HTTPClient *http.Client
}

// NewCaller creates an Oracle for the configured provider. Every provider
// is asked for a JSON object answer.
func NewCaller(cfg CallerConfig) (Oracle, error) {
	provider := strings.ToLower(cfg.Provider)
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}

	switch provider {
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, errors.New("openai oracle requires an api key")
		}
		cfg.Model = orDefault(cfg.Model, "gpt-4o-mini")
		cfg.BaseURL = orDefault(cfg.BaseURL, "https://api.openai.com")
		return newOpenAICaller(cfg), nil

	case ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, errors.New("anthropic oracle requires an api key")
		}
		cfg.Model = orDefault(cfg.Model, "claude-haiku-4-5-20251001")
		cfg.BaseURL = orDefault(cfg.BaseURL, "https://api.anthropic.com")
		return newAnthropicCaller(cfg), nil

	case ProviderOllama:
		cfg.Model = orDefault(cfg.Model, "qwen2.5:7b")
		cfg.BaseURL = orDefault(cfg.BaseURL, "http://localhost:11434")
		return newOllamaCaller(cfg), nil

	default:
		return nil, fmt.Errorf("unsupported oracle provider: %s", cfg.Provider)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// postJSON sends body to url and decodes a 200 response into out.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiError struct {
	Message string `json:"message"`
}

// --- OpenAI ---

type openAIRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens"`
	ResponseFormat *openAIRespFormat `json:"response_format,omitempty"`
}

type openAIRespFormat struct {
	Type string `json:"type"`
}

type openAIResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

func newOpenAICaller(cfg CallerConfig) CallFunc {
	return func(ctx context.Context, instruction string) (string, error) {
		req := openAIRequest{
			Model:          cfg.Model,
			Messages:       []chatMessage{{Role: "user", Content: instruction}},
			Temperature:    cfg.Temperature,
			MaxTokens:      cfg.MaxTokens,
			ResponseFormat: &openAIRespFormat{Type: "json_object"},
		}

		var resp openAIResponse
		err := postJSON(ctx, cfg.HTTPClient, cfg.BaseURL+"/v1/chat/completions",
			map[string]string{"Authorization": "Bearer " + cfg.APIKey}, req, &resp)
		if err != nil {
			return "", fmt.Errorf("openai: %w", err)
		}
		if resp.Error != nil {
			return "", fmt.Errorf("openai error: %s", resp.Error.Message)
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("openai returned no choices")
		}
		return resp.Choices[0].Message.Content, nil
	}
}

// --- Anthropic ---

type anthropicRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *apiError `json:"error,omitempty"`
}

func newAnthropicCaller(cfg CallerConfig) CallFunc {
	return func(ctx context.Context, instruction string) (string, error) {
		req := anthropicRequest{
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Messages: []chatMessage{
				{Role: "user", Content: instruction + "\n\nReturn ONLY valid JSON, no markdown or extra text."},
			},
		}

		var resp anthropicResponse
		err := postJSON(ctx, cfg.HTTPClient, cfg.BaseURL+"/v1/messages", map[string]string{
			"x-api-key":         cfg.APIKey,
			"anthropic-version": "2023-06-01",
		}, req, &resp)
		if err != nil {
			return "", fmt.Errorf("anthropic: %w", err)
		}
		if resp.Error != nil {
			return "", fmt.Errorf("anthropic error: %s", resp.Error.Message)
		}
		for _, block := range resp.Content {
			if block.Type == "" || block.Type == "text" {
				return block.Text, nil
			}
		}
		return "", errors.New("anthropic returned no text content")
	}
}

// --- Ollama ---

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format"`
	Options  ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaChatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

func newOllamaCaller(cfg CallerConfig) CallFunc {
	return func(ctx context.Context, instruction string) (string, error) {
		req := ollamaChatRequest{
			Model:    cfg.Model,
			Messages: []chatMessage{{Role: "user", Content: instruction}},
			Stream:   false,
			Format:   "json",
			Options: ollamaOptions{
				Temperature: cfg.Temperature,
				NumPredict:  cfg.MaxTokens,
			},
		}

		var resp ollamaChatResponse
		if err := postJSON(ctx, cfg.HTTPClient, cfg.BaseURL+"/api/chat", nil, req, &resp); err != nil {
			return "", fmt.Errorf("ollama: %w", err)
		}
		return resp.Message.Content, nil
	}
}
