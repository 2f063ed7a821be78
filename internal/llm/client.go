// Package llm answers free-text inventory questions with an OpenAI-compatible
// chat model grounded on a sample of catalog records.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/catalog"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/domain"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/observability"
)

const (
	defaultBaseURL = "https://api.groq.com/openai/v1"
	defaultModel   = "meta-llama/llama-4-scout-17b-16e-instruct"
)

// Config configures the model client.
type Config struct {
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float64
	MaxTokens   int
	TopP        float64
	SampleSize  int
}

// DefaultConfig returns the standard generation settings.
func DefaultConfig() Config {
	return Config{
		BaseURL:     defaultBaseURL,
		Model:       defaultModel,
		Temperature: 0.2,
		MaxTokens:   2048,
		TopP:        1,
		SampleSize:  MaxSample,
	}
}

// Client sends grounded questions to the model. It does not retry; callers
// bound each call with the context deadline.
type Client struct {
	model   llms.Model
	sampler Sampler
	logger  *observability.Logger
	config  Config
}

// Option customizes a Client.
type Option func(*Client)

// WithSampler replaces the default random sampler.
func WithSampler(s Sampler) Option {
	return func(c *Client) { c.sampler = s }
}

// WithLogger sets the client logger.
func WithLogger(l *observability.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithModel replaces the underlying chat model.
func WithModel(m llms.Model) Option {
	return func(c *Client) { c.model = m }
}

// NewClient creates a client for an OpenAI-compatible endpoint.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.TopP <= 0 {
		cfg.TopP = def.TopP
	}
	if cfg.SampleSize <= 0 || cfg.SampleSize > MaxSample {
		cfg.SampleSize = def.SampleSize
	}

	c := &Client{config: cfg, logger: observability.NopLogger()}
	for _, opt := range opts {
		opt(c)
	}
	if c.sampler == nil {
		c.sampler = NewRandomSampler(0)
	}

	if c.model == nil {
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, domain.ConfigError("llm api key is required", nil)
		}
		model, err := openai.New(
			openai.WithToken(cfg.APIKey),
			openai.WithModel(cfg.Model),
			openai.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")),
		)
		if err != nil {
			return nil, domain.ConfigError("create llm client", err)
		}
		c.model = model
	}

	return c, nil
}

// Answer asks the model about question using a sample of records.
func (c *Client) Answer(ctx context.Context, question string, records []catalog.Record) (string, error) {
	sample := c.sampler.Sample(records, c.config.SampleSize)
	system, err := BuildSystemPrompt(sample)
	if err != nil {
		return "", err
	}

	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, system),
		llms.TextParts(schema.ChatMessageTypeHuman, question),
	}

	start := time.Now()
	resp, err := c.model.GenerateContent(ctx, messages,
		llms.WithTemperature(c.config.Temperature),
		llms.WithMaxTokens(c.config.MaxTokens),
		llms.WithTopP(c.config.TopP),
	)
	if err != nil {
		return "", fmt.Errorf("groq api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("groq api error: empty response")
	}

	c.logger.Debug().
		Str("model", c.config.Model).
		Int("sample", len(sample)).
		Dur("duration", time.Since(start)).
		Msg("Model answered")

	return resp.Choices[0].Content, nil
}
