package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

const defaultOpenRouterURL = "https://openrouter.ai/api/v1"

// Client talks to OpenRouter's OpenAI-compatible chat completions API.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	retry      backoff
	logger     *zap.Logger
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat asks the model for a constrained reply. Type "json_object"
// requests a JSON object.
type ResponseFormat struct {
	Type string `json:"type"`
}

// JSONObject is the ResponseFormat for JSON replies.
var JSONObject = &ResponseFormat{Type: "json_object"}

type GenerateRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type Choice struct {
	Message Message `json:"message"`
}

type GenerateResponse struct {
	ID        string   `json:"id"`
	Choices   []Choice `json:"choices"`
	Usage     Usage    `json:"usage"`
	RequestID string   `json:"-"`
}

// Content returns the first choice's message content.
func (r *GenerateResponse) Content() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// NewClient returns an OpenRouter client. Zero values in cfg fall back to a
// 60s timeout and 3 attempts with 500ms..4s backoff.
func NewClient(cfg RuntimeConfig) *Client {
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 60 * time.Second
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = 3
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenRouterURL
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		retry:      newBackoff(cfg.RetryMax, cfg.BaseDelay, cfg.MaxDelay),
		logger:     cfg.Logger,
	}
}

func validateRequest(req GenerateRequest) error {
	if req.Model == "" {
		return errors.New("model cannot be empty")
	}
	if len(req.Messages) == 0 {
		return errors.New("messages cannot be empty")
	}
	return nil
}

// Generate sends a chat completion, retrying 429/5xx responses and transient
// network errors. A Retry-After header overrides the backoff delay.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if c.apiKey == "" {
		return nil, errors.New("API key is missing; set api_key in config or DATALENS_API_KEY")
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	endpoint := c.baseURL + "/chat/completions"

	var lastErr error
	for attempt := 1; attempt <= c.retry.attempts; attempt++ {
		out, retry, wait, err := c.do(ctx, endpoint, payload)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !retry || attempt == c.retry.attempts {
			break
		}
		if wait <= 0 {
			wait = c.retry.delay(attempt)
		}
		c.logger.Warn("retrying provider request",
			zap.String("provider", ProviderOpenRouter),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// do performs one attempt. retry reports whether another attempt may help;
// wait is the server-requested delay, if any.
func (c *Client) do(ctx context.Context, endpoint string, payload []byte) (out *GenerateResponse, retry bool, wait time.Duration, err error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, false, 0, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("HTTP-Referer", "https://github.com/KaramelBytes/datalens-cli")
	httpReq.Header.Set("X-Title", "DataLens CLI")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, isRetryableNetErr(err), 0, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := readAPIError(resp)
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			wait, _ = parseRetryAfter(ra)
		}
		return nil, isRetryableStatus(resp.StatusCode), wait, classifyAPIError(apiErr, resp.Header)
	}
	out = &GenerateResponse{}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, false, 0, fmt.Errorf("decode response: %w", err)
	}
	out.RequestID = extractRequestID(resp)
	return out, false, 0, nil
}
