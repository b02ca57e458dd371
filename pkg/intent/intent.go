// Package intent decides what a transcribed utterance is asking for.
//
// A Classifier maps free-form text plus short-term conversational context
// to a structured result: either a message-send request with a tentative
// recipient and payload, or general chat. The primary classifier is
// AI-backed; a rule-based classifier serves as the local fallback, and
// Chain wires the two so that classification never fails outright.
//
// Classifier output is only actionable as a send when its confidence
// clears the gate; see Gate.
package intent

import (
	"context"
	"strings"
)

// Action is the classified intent category.
type Action string

const (
	// ActionSendMessage means the user wants a message delivered.
	ActionSendMessage Action = "send_message"

	// ActionGeneralChat means the utterance is conversational.
	ActionGeneralChat Action = "general_chat"
)

// ConfidenceGate is the minimum confidence required to act on a
// send-message intent. Anything at or below is treated as chat to avoid
// false-positive dispatches.
const ConfidenceGate = 0.7

// Exchange is one prior turn of context handed to the classifier,
// including the recipient that turn resolved to (empty for chat turns).
type Exchange struct {
	User      string
	Assistant string
	Recipient string
}

// Result is a classified utterance.
type Result struct {
	// Action is the intent category.
	Action Action `json:"action"`

	// Recipient is the tentative recipient name for sends. May be a
	// pronoun or "unknown"; the caller resolves those from context.
	Recipient string `json:"recipient"`

	// Message is the payload with command words stripped.
	Message string `json:"message"`

	// Confidence is the classifier's self-reported certainty in [0, 1].
	Confidence float64 `json:"confidence"`

	// Reasoning is a brief explanation, for logs only.
	Reasoning string `json:"reasoning"`
}

// Classifier maps an utterance and context to a Result.
type Classifier interface {
	Classify(ctx context.Context, utterance string, history []Exchange) (Result, error)
}

// Gate applies the confidence gate: a send-message result that does not
// clear ConfidenceGate is downgraded to general chat.
func Gate(r Result) Result {
	if r.Action == ActionSendMessage && r.Confidence <= ConfidenceGate {
		r.Action = ActionGeneralChat
	}
	return r
}

// VagueRecipient reports whether the extracted recipient needs to be
// substituted from conversational context before resolving.
func VagueRecipient(name string) bool {
	switch strings.ToLower(name) {
	case "", "him", "her", "them", "unknown":
		return true
	}
	return false
}
