// Package hub fans assistant events out to websocket subscribers using
// a channel-based broadcast hub.
package hub

import (
	"encoding/json"
	"time"
)

// Event is one assistant event pushed to subscribers.
type Event struct {
	Type    string          `json:"type"`
	At      time.Time       `json:"at"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event types emitted by the assistant.
const (
	EventState        = "state"
	EventTranscript   = "transcript"
	EventResponse     = "response"
	EventDispatch     = "dispatch"
	EventNotification = "notification"
)

// NewEvent builds an event, encoding payload as JSON. Encoding failures
// produce an event with an empty payload rather than an error; events
// are advisory.
func NewEvent(typ string, payload any) Event {
	ev := Event{Type: typ, At: time.Now()}
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			ev.Payload = data
		}
	}
	return ev
}
