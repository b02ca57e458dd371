package intent

import "log/slog"

// Config holds settings for the AI classifier.
type Config struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int64
	MaxContext  int
	Logger      *slog.Logger
}

// DefaultConfig returns settings tuned for deterministic, short,
// structured answers.
func DefaultConfig() *Config {
	return &Config{
		Model:       "gpt-4o-mini",
		Temperature: 0.1,
		MaxTokens:   200,
		MaxContext:  3,
		Logger:      slog.Default(),
	}
}

// Option mutates a Config.
type Option func(*Config)

// Apply applies the options in order.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// WithAPIKey sets the OpenAI API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithModel sets the classifier model.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *Config) { c.Temperature = t }
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int64) Option {
	return func(c *Config) { c.MaxTokens = n }
}

// WithMaxContext caps how many prior exchanges are sent for pronoun
// resolution.
func WithMaxContext(n int) Option {
	return func(c *Config) { c.MaxContext = n }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}
