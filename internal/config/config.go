// Package config provides environment-driven configuration for courier.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Defaults for optional settings.
const (
	DefaultOllamaBaseURL = "http://localhost:11434/v1"
	DefaultOllamaModel   = "gemma2:2b"
	DefaultIntentModel   = "gpt-4o"
	DefaultBridgeURL     = "ws://localhost:8765/ws"
	DefaultContactsPath  = "config/contacts.json"
	DefaultConvLogPath   = "data/conversations.json"
	DefaultWebPort       = "8088"
)

// Config holds everything the courier daemon needs at startup.
type Config struct {
	// OpenAIKey authenticates the AI intent classifier.
	OpenAIKey string

	// IntentModel is the model used for intent classification.
	IntentModel string

	// OllamaBaseURL is the OpenAI-compatible endpoint of the local chat model.
	OllamaBaseURL string

	// OllamaModel is the conversational model name.
	OllamaModel string

	// BridgeURL is the websocket endpoint of the messaging bridge.
	BridgeURL string

	// EnableListener controls the inbound message subscription.
	EnableListener bool

	// ContactsPath is the contact directory JSON file.
	ContactsPath string

	// ConvLogPath is the append-only conversation log file.
	ConvLogPath string

	// WebPort is the ops server listen port. Empty disables the server.
	WebPort string

	// ConversationTimeout is the active-session silence window.
	ConversationTimeout time.Duration

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// Load reads configuration from the environment.
func Load() *Config {
	return &Config{
		OpenAIKey:           os.Getenv("OPENAI_API_KEY"),
		IntentModel:         envOr("INTENT_MODEL", DefaultIntentModel),
		OllamaBaseURL:       envOr("OLLAMA_BASE_URL", DefaultOllamaBaseURL),
		OllamaModel:         envOr("OLLAMA_MODEL", DefaultOllamaModel),
		BridgeURL:           envOr("BRIDGE_URL", DefaultBridgeURL),
		EnableListener:      envBool("ENABLE_MESSAGE_LISTENER", false),
		ContactsPath:        envOr("CONTACTS_PATH", DefaultContactsPath),
		ConvLogPath:         envOr("CONVERSATION_LOG_PATH", DefaultConvLogPath),
		WebPort:             envOr("WEB_PORT", DefaultWebPort),
		ConversationTimeout: envDuration("CONVERSATION_TIMEOUT", 60*time.Second),
		LogLevel:            envOr("LOG_LEVEL", "info"),
	}
}

// Validate checks that required credentials are present.
// A missing credential is an unrecoverable startup failure.
func (c *Config) Validate() error {
	if c.OpenAIKey == "" || c.OpenAIKey == "your_openai_api_key_here" {
		return fmt.Errorf("config: OPENAI_API_KEY is required")
	}
	if c.OllamaBaseURL == "" {
		return fmt.Errorf("config: OLLAMA_BASE_URL must not be empty")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
