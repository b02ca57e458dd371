package assistant

import (
	"log/slog"
	"time"
)

// Config holds the session timing knobs.
type Config struct {
	// ConversationTimeout closes an active session after silence.
	ConversationTimeout time.Duration

	// ReplyExpiry bounds how long a reply window stays armed.
	ReplyExpiry time.Duration

	// DispatchTimeout bounds a single message send.
	DispatchTimeout time.Duration

	// WakeWindow is the listen chunk used while dormant.
	WakeWindow time.Duration

	// ListenWindow is the listen chunk used during a conversation.
	ListenWindow time.Duration

	// ConfirmWindow is the listen chunk for yes/no confirmations.
	ConfirmWindow time.Duration

	// ListenBackoff is the pause after a failed listen, so a broken
	// transcriber cannot spin the loop hot.
	ListenBackoff time.Duration

	// ChatContext caps the chat history sent to the language model.
	ChatContext int

	// IntentContext caps the exchange history sent to the classifier.
	IntentContext int

	// Clock is the time source; tests substitute a fake.
	Clock func() time.Time

	Logger *slog.Logger
}

// DefaultConfig returns the standard session timings.
func DefaultConfig() *Config {
	return &Config{
		ConversationTimeout: 60 * time.Second,
		ReplyExpiry:         60 * time.Second,
		DispatchTimeout:     10 * time.Second,
		WakeWindow:          3 * time.Second,
		ListenWindow:        5 * time.Second,
		ConfirmWindow:       5 * time.Second,
		ListenBackoff:       time.Second,
		ChatContext:         3,
		IntentContext:       5,
		Clock:               time.Now,
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

// WithConversationTimeout sets the silence timeout for an active
// session.
func WithConversationTimeout(d time.Duration) Option {
	return func(c *Config) { c.ConversationTimeout = d }
}

// WithReplyExpiry sets the reply-window lifetime.
func WithReplyExpiry(d time.Duration) Option {
	return func(c *Config) { c.ReplyExpiry = d }
}

// WithDispatchTimeout bounds message sends.
func WithDispatchTimeout(d time.Duration) Option {
	return func(c *Config) { c.DispatchTimeout = d }
}

// WithListenBackoff sets the pause after a failed listen.
func WithListenBackoff(d time.Duration) Option {
	return func(c *Config) { c.ListenBackoff = d }
}

// WithClock sets the time source.
func WithClock(clock func() time.Time) Option {
	return func(c *Config) { c.Clock = clock }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}
