package intent

import (
	"context"
	"strings"
)

// sendKeywords mark an utterance as a message-send command when the AI
// classifier is unavailable.
var sendKeywords = []string{
	"send", "message", "tell", "notify", "inform", "let know", "text",
}

var _ Classifier = (*Rules)(nil)

// Rules is the keyword fallback classifier. It never fails and never
// claims high confidence, so a rules-only decision still clears the
// confidence gate only for obvious commands.
type Rules struct{}

// NewRules creates the fallback classifier.
func NewRules() *Rules { return &Rules{} }

// Classify matches the utterance against the send keywords. It cannot
// extract a recipient or clean the message, so send intents come back
// with an unknown recipient and the full utterance as the message.
func (r *Rules) Classify(_ context.Context, utterance string, _ []Exchange) (Result, error) {
	lower := strings.ToLower(utterance)

	for _, kw := range sendKeywords {
		if strings.Contains(lower, kw) {
			return Result{
				Action:     ActionSendMessage,
				Recipient:  "unknown",
				Message:    utterance,
				Confidence: 0.5,
				Reasoning:  "keyword match: " + kw,
			}, nil
		}
	}

	return Result{
		Action:     ActionGeneralChat,
		Confidence: 0.5,
		Reasoning:  "no send keywords",
	}, nil
}
