package ai

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Runtime is implemented by chat backends such as OpenRouter and a local Ollama.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Provider identifiers accepted by NewRuntime.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)

// RuntimeConfig carries the knobs shared by runtimes.
type RuntimeConfig struct {
	HTTPTimeout time.Duration
	RetryMax    int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// OpenRouter
	APIKey  string
	BaseURL string
	// Ollama
	Host string

	Logger *zap.Logger
}

// RuntimeFactory builds a Runtime from a RuntimeConfig.
type RuntimeFactory func(RuntimeConfig) Runtime

var registry = map[string]RuntimeFactory{
	ProviderOpenRouter: func(c RuntimeConfig) Runtime { return NewClient(c) },
	ProviderOllama:     func(c RuntimeConfig) Runtime { return NewOllamaClient(c) },
}

// RegisterRuntime registers a provider name with its factory.
func RegisterRuntime(name string, f RuntimeFactory) { registry[strings.ToLower(name)] = f }

// NewRuntime creates the runtime registered under name.
func NewRuntime(name string, cfg RuntimeConfig) (Runtime, error) {
	f, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (available: %s)", name, strings.Join(Providers(), ", "))
	}
	return f(cfg), nil
}

// Providers lists registered provider names in sorted order.
func Providers() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
