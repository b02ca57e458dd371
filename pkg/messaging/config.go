package messaging

import (
	"log/slog"
	"time"
)

// Config holds bridge connection settings.
type Config struct {
	URL                 string
	HandshakeTimeout    time.Duration
	DispatchTimeout     time.Duration
	ReconnectDelay      time.Duration
	ErrorReconnectDelay time.Duration
	Logger              *slog.Logger
}

// DefaultConfig returns settings for a local bridge.
func DefaultConfig() *Config {
	return &Config{
		URL:                 "ws://localhost:8765/ws",
		HandshakeTimeout:    10 * time.Second,
		DispatchTimeout:     10 * time.Second,
		ReconnectDelay:      5 * time.Second,
		ErrorReconnectDelay: 10 * time.Second,
		Logger:              slog.Default(),
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

// WithURL sets the bridge WebSocket URL.
func WithURL(url string) Option {
	return func(c *Config) { c.URL = url }
}

// WithDispatchTimeout bounds a single send-and-ack exchange.
func WithDispatchTimeout(d time.Duration) Option {
	return func(c *Config) { c.DispatchTimeout = d }
}

// WithReconnectDelays sets the waits after a clean disconnect and
// after an error.
func WithReconnectDelays(clean, onError time.Duration) Option {
	return func(c *Config) {
		c.ReconnectDelay = clean
		c.ErrorReconnectDelay = onError
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}
