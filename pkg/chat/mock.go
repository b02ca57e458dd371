package chat

import (
	"context"
	"sync"
)

// Mock implements the assistant's chat surface for testing.
// All methods can be customized via function fields.
type Mock struct {
	// ReplyFunc is called when Reply is invoked.
	// If nil, returns a canned reply.
	ReplyFunc func(ctx context.Context, prompt string, history []Turn) (string, error)

	// HealthFunc is called when Health is invoked.
	// If nil, returns nil (healthy).
	HealthFunc func(ctx context.Context) error

	mu      sync.Mutex
	prompts []string
}

// Reply calls ReplyFunc and records the prompt.
func (m *Mock) Reply(ctx context.Context, prompt string, history []Turn) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.ReplyFunc != nil {
		return m.ReplyFunc(ctx, prompt, history)
	}
	return "Okay.", nil
}

// Health calls HealthFunc.
func (m *Mock) Health(ctx context.Context) error {
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

// Prompts returns a copy of every prompt passed to Reply.
func (m *Mock) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}
