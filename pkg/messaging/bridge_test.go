package messaging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{}

// bridgeServer runs a fake bridge whose behavior per connection is
// supplied by the test.
func bridgeServer(t *testing.T, handle func(*websocket.Conn)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		handle(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestBridgeSend(t *testing.T) {
	t.Run("acked send succeeds", func(t *testing.T) {
		srv := bridgeServer(t, func(conn *websocket.Conn) {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			if f.Type != frameSend || f.Recipient != "john_smith" || f.Text != "I'll be late" {
				t.Errorf("unexpected frame: %+v", f)
			}
			conn.WriteJSON(frame{Type: frameAck, ID: f.ID, Success: true})
		})

		b := NewBridge(WithURL(wsURL(srv)))
		defer b.Close()

		res, err := b.Send(context.Background(), "john_smith", "I'll be late")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Success {
			t.Errorf("success = false, want true: %+v", res)
		}
		if res.MessageID == "" {
			t.Error("message id missing")
		}
	})

	t.Run("rejected send carries bridge error", func(t *testing.T) {
		srv := bridgeServer(t, func(conn *websocket.Conn) {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			conn.WriteJSON(frame{Type: frameAck, ID: f.ID, Success: false, Error: "recipient offline"})
		})

		b := NewBridge(WithURL(wsURL(srv)))
		defer b.Close()

		res, err := b.Send(context.Background(), "john_smith", "hi")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Success {
			t.Error("success = true, want false")
		}
		if res.Error != "recipient offline" {
			t.Errorf("error = %q, want bridge reason", res.Error)
		}
	})

	t.Run("stray frames before the ack are skipped", func(t *testing.T) {
		srv := bridgeServer(t, func(conn *websocket.Conn) {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			conn.WriteJSON(frame{Type: frameMessage, Sender: "sara", Text: "hey"})
			conn.WriteJSON(frame{Type: frameAck, ID: f.ID, Success: true})
		})

		b := NewBridge(WithURL(wsURL(srv)))
		defer b.Close()

		res, err := b.Send(context.Background(), "sara", "hello")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Success {
			t.Error("ack should still be matched after stray frames")
		}
	})

	t.Run("missing ack times out", func(t *testing.T) {
		srv := bridgeServer(t, func(conn *websocket.Conn) {
			// Swallow the frame and never ack.
			conn.ReadJSON(&frame{})
			time.Sleep(time.Second)
		})

		b := NewBridge(WithURL(wsURL(srv)), WithDispatchTimeout(100*time.Millisecond))
		defer b.Close()

		_, err := b.Send(context.Background(), "john_smith", "hi")
		if !errors.Is(err, ErrDispatchTimeout) {
			t.Errorf("err = %v, want ErrDispatchTimeout", err)
		}
	})

	t.Run("unreachable bridge", func(t *testing.T) {
		b := NewBridge(WithURL("ws://127.0.0.1:1/ws"))
		_, err := b.Send(context.Background(), "john_smith", "hi")
		if !errors.Is(err, ErrBridgeUnavailable) {
			t.Errorf("err = %v, want ErrBridgeUnavailable", err)
		}
	})
}

func TestBridgeListener(t *testing.T) {
	srv := bridgeServer(t, func(conn *websocket.Conn) {
		conn.WriteJSON(frame{Type: frameAck, ID: "ignored"})
		conn.WriteJSON(frame{
			Type:       frameMessage,
			Sender:     "John Smith",
			Text:       "Are you coming?",
			ReceivedAt: time.Now().Format(time.RFC3339),
		})
		// Keep the connection open until the client goes away.
		conn.ReadMessage()
	})

	l := NewBridgeListener(WithURL(wsURL(srv)))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Inbound, 1)
	go l.Subscribe(ctx, func(in Inbound) { got <- in })

	select {
	case in := <-got:
		if in.SenderName != "John Smith" || in.Text != "Are you coming?" {
			t.Errorf("unexpected inbound: %+v", in)
		}
		if !l.Connected() {
			t.Error("listener should report connected while subscribed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no inbound message delivered")
	}
}

func TestListenerReconnectDoesNotLeakGoroutines(t *testing.T) {
	srv := bridgeServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	})

	l := NewBridgeListener(
		WithURL(wsURL(srv)),
		WithReconnectDelays(time.Millisecond, time.Millisecond),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	before := runtime.NumGoroutine()
	go l.Subscribe(ctx, func(Inbound) {})
	time.Sleep(300 * time.Millisecond)
	after := runtime.NumGoroutine()

	if grown := after - before; grown > 10 {
		t.Errorf("goroutines grew by %d across reconnect cycles", grown)
	}
}

func TestParseReceivedAt(t *testing.T) {
	want := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	got := parseReceivedAt(want.Format(time.RFC3339))
	if !got.Equal(want) {
		t.Errorf("parsed %v, want %v", got, want)
	}

	if parseReceivedAt("garbage").IsZero() {
		t.Error("malformed timestamp should fall back to now, not zero")
	}
}
