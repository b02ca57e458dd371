package chat

import (
	"log/slog"
	"time"
)

// DefaultSystemPrompt keeps spoken replies short enough to listen to.
const DefaultSystemPrompt = "You are a helpful voice assistant. Keep responses very short (1-2 sentences)."

// Config holds chat client configuration.
type Config struct {
	// Connection
	BaseURL string // OpenAI-compatible API base URL
	APIKey  string // Optional for local providers like Ollama

	// Model
	Model        string
	SystemPrompt string

	// Request defaults
	MaxTokens   int
	Temperature float64
	MaxHistory  int // Turns of rolling context per request

	// Timeouts and retry
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring the client.
type Option func(*Config)

// WithBaseURL sets the API base URL.
// Examples: "http://localhost:11434/v1", "https://api.openai.com/v1"
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = trimSlash(url) }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithModel sets the chat model.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithSystemPrompt overrides the assistant persona.
func WithSystemPrompt(prompt string) Option {
	return func(c *Config) { c.SystemPrompt = prompt }
}

// WithMaxTokens sets the response length limit.
func WithMaxTokens(n int) Option {
	return func(c *Config) { c.MaxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *Config) { c.Temperature = t }
}

// WithMaxHistory sets how many conversation turns travel with each request.
func WithMaxHistory(n int) Option {
	return func(c *Config) { c.MaxHistory = n }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithRetry configures retry behavior.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns sensible defaults for a local Ollama endpoint.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:      "http://localhost:11434/v1",
		Model:        "gemma2:2b",
		SystemPrompt: DefaultSystemPrompt,
		MaxTokens:    256,
		Temperature:  0.7,
		MaxHistory:   3,
		Timeout:      30 * time.Second,
		MaxRetries:   2,
		RetryDelay:   100 * time.Millisecond,
		Logger:       slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
