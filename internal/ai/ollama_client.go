package ai

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

const defaultOllamaHost = "http://127.0.0.1:11434"

// OllamaClient is a minimal client for a local Ollama runtime's /api/chat.
type OllamaClient struct {
	httpClient *http.Client
	host       string
	retry      backoff
	logger     *zap.Logger
}

// NewOllamaClient targets cfg.Host (default http://127.0.0.1:11434). Zero
// values fall back to 2 attempts with 200ms..1s backoff.
func NewOllamaClient(cfg RuntimeConfig) *OllamaClient {
	if cfg.Host == "" {
		cfg.Host = defaultOllamaHost
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 60 * time.Second
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = 2
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 200 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &OllamaClient{
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		host:       cfg.Host,
		retry:      newBackoff(cfg.RetryMax, cfg.BaseDelay, cfg.MaxDelay),
		logger:     cfg.Logger,
	}
}

type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   string         `json:"format,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Model   string  `json:"model"`
	Message Message `json:"message"`
	Done    bool    `json:"done"`
	// token counts
	PromptEvalCount int `json:"prompt_eval_count"`
	EvalCount       int `json:"eval_count"`
}

// Generate sends a non-streaming chat request and maps the reply to GenerateResponse.
func (c *OllamaClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	oreq := ollamaChatRequest{Model: req.Model, Messages: req.Messages, Options: map[string]any{}}
	if req.ResponseFormat != nil && req.ResponseFormat.Type == JSONObject.Type {
		oreq.Format = "json"
	}
	if req.Temperature > 0 {
		oreq.Options["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		oreq.Options["num_predict"] = req.MaxTokens
	}
	payload, err := json.Marshal(oreq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.retry.attempts; attempt++ {
		out, retry, err := c.do(ctx, payload)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !retry || attempt == c.retry.attempts {
			break
		}
		wait := c.retry.delay(attempt)
		c.logger.Warn("retrying provider request",
			zap.String("provider", ProviderOllama),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *OllamaClient) do(ctx context.Context, payload []byte) (*GenerateResponse, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, isRetryableNetErr(err), &UnreachableError{Host: c.host, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := readAPIError(resp)
		// Ollama answers 404 for models that were never pulled.
		if resp.StatusCode == http.StatusNotFound {
			return nil, false, &ModelNotFoundError{APIError: apiErr}
		}
		return nil, resp.StatusCode >= 500, classifyAPIError(apiErr, resp.Header)
	}
	var oresp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&oresp); err != nil {
		return nil, false, fmt.Errorf("decode response: %w", err)
	}
	return &GenerateResponse{
		Choices: []Choice{{Message: Message{Role: "assistant", Content: oresp.Message.Content}}},
		Usage: Usage{
			PromptTokens:     oresp.PromptEvalCount,
			CompletionTokens: oresp.EvalCount,
			TotalTokens:      oresp.PromptEvalCount + oresp.EvalCount,
		},
		RequestID: fmt.Sprintf("ollama_%d", time.Now().UnixNano()),
	}, false, nil
}
