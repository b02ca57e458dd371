// Package chat provides the conversational fallback model client.
//
// Utterances that are not message-send commands get a short spoken reply
// from a local language model. The client speaks the OpenAI-compatible
// chat completions API, so it works against Ollama's /v1 endpoint as
// well as any hosted provider, with retry on transient failures.
//
// Example usage:
//
//	client := chat.NewClient(
//	    chat.WithBaseURL("http://localhost:11434/v1"),
//	    chat.WithModel("gemma2:2b"),
//	)
//	defer client.Close()
//
//	reply, err := client.Reply(ctx, "what's the capital of France?", history)
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Turn is one completed user/assistant exchange, used as rolling context.
type Turn struct {
	User      string
	Assistant string
}

// Client is an OpenAI-compatible chat completions client.
type Client struct {
	cfg  *Config
	http *http.Client
}

// NewClient creates a chat client with the given options.
func NewClient(opts ...Option) *Client {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Reply generates a short conversational answer to the prompt.
//
// Up to the most recent MaxHistory turns are included as context. The
// response is trimmed to at most two sentences so it stays speakable.
func (c *Client) Reply(ctx context.Context, prompt string, history []Turn) (string, error) {
	messages := []Message{{Role: RoleSystem, Content: c.cfg.SystemPrompt}}

	if n := len(history); n > c.cfg.MaxHistory {
		history = history[n-c.cfg.MaxHistory:]
	}
	for _, turn := range history {
		messages = append(messages,
			Message{Role: RoleUser, Content: turn.User},
			Message{Role: RoleAssistant, Content: turn.Assistant},
		)
	}
	messages = append(messages, Message{Role: RoleUser, Content: prompt})

	resp, err := c.complete(ctx, messages)
	if err != nil {
		return "", err
	}

	return TrimSentences(resp, 2), nil
}

// Health checks connectivity to the model endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("chat: create request: %w", err)
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("chat: %w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("chat: %w: status %d", ErrUnreachable, resp.StatusCode)
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// completionRequest is the wire payload for /chat/completions.
type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	Stream      bool      `json:"stream"`
}

// completionResponse is the subset of the response we consume.
type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

func (c *Client) complete(ctx context.Context, messages []Message) (string, error) {
	payload := completionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("chat: marshal payload: %w", err)
	}

	resp, err := c.postWithRetry(ctx, c.cfg.BaseURL+"/chat/completions", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("chat: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	content := strings.TrimSpace(out.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

// postWithRetry retries on 429 and 5xx with linear backoff.
func (c *Client) postWithRetry(ctx context.Context, url string, body []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.cfg.RetryDelay * time.Duration(attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("chat: create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("chat: %w: %v", ErrUnreachable, err)
			c.cfg.Logger.Warn("chat request failed, retrying",
				"attempt", attempt+1,
				"error", err,
			)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = parseAPIError(resp)
			resp.Body.Close()
			c.cfg.Logger.Warn("retrying chat request",
				"attempt", attempt+1,
				"status", resp.StatusCode,
			)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			defer resp.Body.Close()
			return nil, parseAPIError(resp)
		}

		return resp, nil
	}

	return nil, lastErr
}

// parseAPIError extracts a structured error from a non-OK response.
func parseAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return apiErr
	}

	var wire struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &wire) == nil {
		apiErr.Message = wire.Error.Message
		apiErr.Code = wire.Error.Code
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}

	return apiErr
}

// TrimSentences keeps at most n sentences of text, matching how the
// assistant keeps spoken replies short.
func TrimSentences(text string, n int) string {
	parts := strings.Split(text, ".")
	if len(parts) <= n {
		return strings.TrimSpace(text)
	}

	trimmed := strings.TrimSpace(strings.Join(parts[:n], "."))
	if trimmed == "" {
		return strings.TrimSpace(text)
	}
	return trimmed + "."
}
