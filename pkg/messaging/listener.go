package messaging

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

var _ Listener = (*BridgeListener)(nil)

// BridgeListener subscribes to inbound messages from the bridge. It
// reconnects forever: a clean disconnect waits the idle delay, an error
// waits the longer error delay.
type BridgeListener struct {
	cfg       *Config
	connected atomic.Bool
}

// NewBridgeListener creates a listener for the configured bridge URL.
func NewBridgeListener(opts ...Option) *BridgeListener {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	return &BridgeListener{cfg: cfg}
}

// Connected reports whether the listener holds a live connection.
func (l *BridgeListener) Connected() bool {
	return l.connected.Load()
}

// Subscribe blocks until ctx is canceled, delivering each inbound
// message frame to handler. Send acks and unknown frames are ignored.
func (l *BridgeListener) Subscribe(ctx context.Context, handler Handler) error {
	for {
		clean, err := l.listenOnce(ctx, handler)
		l.connected.Store(false)

		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay := l.cfg.ReconnectDelay
		if !clean {
			delay = l.cfg.ErrorReconnectDelay
			l.cfg.Logger.Warn("message listener error, reconnecting", "error", err, "delay", delay)
		} else {
			l.cfg.Logger.Info("message listener disconnected, reconnecting", "delay", delay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// listenOnce runs one connection lifetime. It reports whether the
// connection ended cleanly.
func (l *BridgeListener) listenOnce(ctx context.Context, handler Handler) (clean bool, err error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: l.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, l.cfg.URL, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	l.connected.Store(true)
	l.cfg.Logger.Info("message listener connected", "url", l.cfg.URL)

	// The watcher must not outlive this connection, or every reconnect
	// cycle would leak a goroutine.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return true, nil
			}
			return false, err
		}

		var f frame
		if err := json.Unmarshal(raw, &f); err != nil {
			l.cfg.Logger.Warn("dropping malformed bridge frame", "error", err)
			continue
		}
		if f.Type != frameMessage {
			continue
		}

		in := Inbound{
			SenderName: f.Sender,
			Text:       f.Text,
			ReceivedAt: parseReceivedAt(f.ReceivedAt),
		}
		handler(in)
	}
}

// parseReceivedAt falls back to the local clock when the bridge omits
// or mangles the timestamp.
func parseReceivedAt(s string) time.Time {
	if s == "" {
		return time.Now()
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Now()
	}
	return t
}
