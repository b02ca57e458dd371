package speech

import (
	"context"
	"sync"
	"time"
)

// MockTranscriber implements Transcriber for testing.
// It returns scripted utterances in order, then empty strings.
type MockTranscriber struct {
	// Script is the sequence of utterances to return.
	Script []string

	// ListenFunc overrides the scripted behavior when set.
	ListenFunc func(ctx context.Context, window time.Duration) (string, error)

	mu   sync.Mutex
	next int
}

// Listen returns the next scripted utterance.
func (m *MockTranscriber) Listen(ctx context.Context, window time.Duration) (string, error) {
	if m.ListenFunc != nil {
		return m.ListenFunc(ctx, window)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.next >= len(m.Script) {
		return "", nil
	}
	text := m.Script[m.next]
	m.next++
	return text, nil
}

// MockSpeaker implements Speaker for testing, recording every spoken line.
type MockSpeaker struct {
	mu     sync.Mutex
	spoken []string
}

// Speak records the line.
func (m *MockSpeaker) Speak(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spoken = append(m.spoken, text)
}

// Spoken returns a copy of everything spoken so far.
func (m *MockSpeaker) Spoken() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.spoken))
	copy(out, m.spoken)
	return out
}

// Reset clears the recorded lines.
func (m *MockSpeaker) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spoken = nil
}
