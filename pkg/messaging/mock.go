package messaging

import (
	"context"
	"sync"
)

// Sent records one dispatched message.
type Sent struct {
	Recipient string
	Text      string
}

// MockDispatcher records sends for tests.
type MockDispatcher struct {
	SendFunc func(ctx context.Context, recipient, text string) (SendResult, error)

	mu   sync.Mutex
	sent []Sent
}

// NewMockDispatcher creates a dispatcher that succeeds every send.
func NewMockDispatcher() *MockDispatcher {
	return &MockDispatcher{}
}

// Send records the message and delegates to SendFunc when set.
func (m *MockDispatcher) Send(ctx context.Context, recipient, text string) (SendResult, error) {
	m.mu.Lock()
	m.sent = append(m.sent, Sent{Recipient: recipient, Text: text})
	m.mu.Unlock()

	if m.SendFunc != nil {
		return m.SendFunc(ctx, recipient, text)
	}
	return SendResult{Success: true, MessageID: "mock"}, nil
}

// Sent returns the messages dispatched so far.
func (m *MockDispatcher) Sent() []Sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Sent, len(m.sent))
	copy(out, m.sent)
	return out
}

// MockListener feeds scripted inbound messages to the handler.
type MockListener struct {
	Inbox []Inbound
	Live  bool
}

// Subscribe delivers the scripted inbox and then blocks until ctx is
// canceled.
func (m *MockListener) Subscribe(ctx context.Context, handler Handler) error {
	for _, in := range m.Inbox {
		handler(in)
	}
	<-ctx.Done()
	return ctx.Err()
}

// Connected reports the scripted connection state.
func (m *MockListener) Connected() bool { return m.Live }

var (
	_ Dispatcher = (*MockDispatcher)(nil)
	_ Listener   = (*MockListener)(nil)
)
