// Package ai asks a hosted LLM to describe pasted URLs and to suggest domains.
package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"
)

// Defaults for the hosted completion model.
const (
	DefaultModel       = "gpt-4o-mini"
	DefaultMaxTokens   = 300
	DefaultTemperature = 0.3
)

// Completer turns a single prompt into a completion.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config configures an OpenAI-compatible completer.
type Config struct {
	APIKey     string `json:"-"`
	Model      string
	BaseURL    string
	MaxTokens  int
	RatePerSec float64
}

// OpenAICompleter implements Completer with langchaingo's OpenAI client.
type OpenAICompleter struct {
	llm       llms.Model
	maxTokens int
	limiter   *rate.Limiter
}

// NewOpenAICompleter creates a completer. An empty API key is an error.
func NewOpenAICompleter(cfg Config) (*OpenAICompleter, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("openai API key required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}

	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}

	return &OpenAICompleter{
		llm:       llm,
		maxTokens: cfg.MaxTokens,
		limiter:   rate.NewLimiter(limit, 1),
	}, nil
}

// Complete sends prompt as a single user message.
func (c *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter error: %w", err)
	}

	out, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt,
		llms.WithMaxTokens(c.maxTokens),
		llms.WithTemperature(DefaultTemperature),
	)
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}
	return out, nil
}

// OpenAIFactory returns a CompleterFactory that reuses base with another key.
func OpenAIFactory(base Config) CompleterFactory {
	return func(apiKey string) (Completer, error) {
		cfg := base
		cfg.APIKey = apiKey
		return NewOpenAICompleter(cfg)
	}
}

// stripFence removes a surrounding markdown code fence from a completion.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.ContainsAny(s[:i], "{[") {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
