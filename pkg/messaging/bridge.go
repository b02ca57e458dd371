package messaging

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var _ Dispatcher = (*Bridge)(nil)

// Bridge dispatches messages over a WebSocket connection to the bridge.
// The connection is opened lazily and reused; Send serializes frames so
// each ack matches the frame that was just written.
type Bridge struct {
	cfg *Config

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

// NewBridge creates a dispatcher for the configured bridge URL.
func NewBridge(opts ...Option) *Bridge {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	return &Bridge{cfg: cfg}
}

// connect dials the bridge. Callers hold b.mu. Connecting twice is a
// no-op while the connection is live.
func (b *Bridge) connect() error {
	if b.connected {
		return nil
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: b.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.Dial(b.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBridgeUnavailable, err)
	}

	b.conn = conn
	b.connected = true
	b.cfg.Logger.Info("connected to message bridge", "url", b.cfg.URL)
	return nil
}

// drop discards the connection after a failure. Callers hold b.mu.
func (b *Bridge) drop() {
	if b.conn != nil {
		b.conn.Close()
		b.conn = nil
	}
	b.connected = false
}

// Send writes a send frame and waits for its ack. The whole exchange is
// bounded by the dispatch timeout; a failed exchange drops the
// connection so the next Send redials.
func (b *Bridge) Send(ctx context.Context, recipient, text string) (SendResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.connect(); err != nil {
		return SendResult{}, err
	}

	id := uuid.NewString()
	deadline := time.Now().Add(b.cfg.DispatchTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	b.conn.SetWriteDeadline(deadline)
	err := b.conn.WriteJSON(frame{
		Type:      frameSend,
		ID:        id,
		Recipient: recipient,
		Text:      text,
	})
	if err != nil {
		b.drop()
		return SendResult{}, fmt.Errorf("write send frame: %w", err)
	}

	b.conn.SetReadDeadline(deadline)
	for {
		var f frame
		if err := b.conn.ReadJSON(&f); err != nil {
			b.drop()
			return SendResult{}, fmt.Errorf("%w: %v", ErrDispatchTimeout, err)
		}
		// The dispatch connection can still see stray message frames;
		// only the matching ack ends the exchange.
		if f.Type != frameAck || f.ID != id {
			continue
		}

		res := SendResult{
			Success:   f.Success,
			MessageID: id,
			Error:     f.Error,
		}
		if !res.Success {
			b.cfg.Logger.Warn("bridge rejected message", "recipient", recipient, "error", f.Error)
		}
		return res, nil
	}
}

// Close shuts down the dispatch connection.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.drop()
}
