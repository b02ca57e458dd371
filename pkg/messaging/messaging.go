// Package messaging sends and receives user messages through a
// WebSocket bridge.
//
// The bridge speaks a small JSON frame protocol: outbound "send" frames
// carry a unique id, recipient address and text, and are acknowledged
// by an "ack" frame with the same id. Inbound "message" frames carry
// the sender and text of messages arriving for the user.
//
// Example usage:
//
//	d := messaging.NewBridge(messaging.WithURL("ws://localhost:8765/ws"))
//	res, err := d.Send(ctx, "john_smith", "I'll be late")
//
//	l := messaging.NewBridgeListener(messaging.WithURL("ws://localhost:8765/ws"))
//	go l.Subscribe(ctx, func(in messaging.Inbound) {
//		fmt.Printf("%s says: %s\n", in.SenderName, in.Text)
//	})
package messaging

import (
	"context"
	"time"
)

// Inbound is a message received for the user.
type Inbound struct {
	SenderName string
	Text       string
	ReceivedAt time.Time
}

// SendResult reports the outcome of a dispatch.
type SendResult struct {
	Success   bool
	MessageID string
	Error     string
}

// Dispatcher sends messages to a recipient address.
type Dispatcher interface {
	Send(ctx context.Context, recipient, text string) (SendResult, error)
}

// Handler consumes inbound messages.
type Handler func(Inbound)

// Listener delivers inbound messages to a handler.
type Listener interface {
	// Subscribe blocks, delivering messages to handler until ctx is
	// canceled. Connection loss is handled internally by reconnecting.
	Subscribe(ctx context.Context, handler Handler) error

	// Connected reports whether the listener currently holds a live
	// connection.
	Connected() bool
}

// frame is the bridge wire format.
type frame struct {
	Type       string `json:"type"`
	ID         string `json:"id,omitempty"`
	Recipient  string `json:"recipient,omitempty"`
	Text       string `json:"text,omitempty"`
	Sender     string `json:"sender,omitempty"`
	ReceivedAt string `json:"received_at,omitempty"`
	Success    bool   `json:"success,omitempty"`
	Error      string `json:"error,omitempty"`
}

const (
	frameSend    = "send"
	frameAck     = "ack"
	frameMessage = "message"
)
