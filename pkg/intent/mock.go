package intent

import "context"

// Mock is a test classifier with overridable behavior.
type Mock struct {
	ClassifyFunc func(ctx context.Context, utterance string, history []Exchange) (Result, error)

	calls []string
}

// NewMock creates a mock that classifies everything as general chat.
func NewMock() *Mock {
	return &Mock{}
}

// Classify records the utterance and delegates to ClassifyFunc when set.
func (m *Mock) Classify(ctx context.Context, utterance string, history []Exchange) (Result, error) {
	m.calls = append(m.calls, utterance)
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, utterance, history)
	}
	return Result{Action: ActionGeneralChat, Confidence: 0.9}, nil
}

// Calls returns the utterances classified so far.
func (m *Mock) Calls() []string { return m.calls }
