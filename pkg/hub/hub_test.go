package hub

import (
	"encoding/json"
	"testing"
)

func TestNewEvent(t *testing.T) {
	ev := NewEvent(EventDispatch, map[string]string{"recipient": "john"})

	if ev.Type != EventDispatch {
		t.Errorf("type = %q, want %q", ev.Type, EventDispatch)
	}
	if ev.At.IsZero() {
		t.Error("event timestamp missing")
	}

	var payload map[string]string
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		t.Fatalf("payload decode: %v", err)
	}
	if payload["recipient"] != "john" {
		t.Errorf("payload = %v, want recipient john", payload)
	}
}

func TestPublishWithoutSubscribers(t *testing.T) {
	h := New(nil)

	// No Run loop and no subscribers; Publish must not block.
	for i := 0; i < 10; i++ {
		h.Publish(NewEvent(EventState, nil))
	}
	if h.ClientCount() != 0 {
		t.Errorf("client count = %d, want 0", h.ClientCount())
	}
}
