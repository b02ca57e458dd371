package assistant

import (
	"sync"
	"time"
)

// Mode is the coarse session state.
type Mode string

const (
	// ModeDormant means the assistant is waiting for a wake phrase.
	ModeDormant Mode = "dormant"
	// ModeActive means a timed conversation window is open.
	ModeActive Mode = "active"
)

// HistoryKind labels how a sent message was produced.
type HistoryKind string

const (
	KindSent      HistoryKind = "sent"
	KindReply     HistoryKind = "reply"
	KindAutoReply HistoryKind = "auto_reply"
	KindFollowUp  HistoryKind = "follow_up"
)

// maxMessageHistory bounds the sent-message history; oldest entries
// are evicted first.
const maxMessageHistory = 10

// ReceivedMessage is the most recent inbound message.
type ReceivedMessage struct {
	SenderName string
	Text       string
	ReceivedAt time.Time
}

// SentRecord is one entry in the sent-message history.
type SentRecord struct {
	Recipient string
	Message   string
	Kind      HistoryKind
}

// Context holds the session-scoped messaging state shared between the
// conversation loop and the inbound listener callback. It lives for
// the process lifetime; reply arming expires but the last-recipient
// memory survives wake/sleep cycles.
type Context struct {
	replyExpiry time.Duration

	mu            sync.Mutex
	mode          Mode
	modeEnteredAt time.Time
	lastReceived  *ReceivedMessage
	lastRecipient string
	history       []SentRecord
	replyArmed    bool
	replyArmedAt  time.Time
}

// NewContext creates a dormant context with the given reply-mode
// expiry window.
func NewContext(replyExpiry time.Duration) *Context {
	return &Context{
		replyExpiry:   replyExpiry,
		mode:          ModeDormant,
		modeEnteredAt: time.Now(),
	}
}

// SetMode records a mode transition.
func (c *Context) SetMode(m Mode, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != m {
		c.mode = m
		c.modeEnteredAt = now
	}
}

// Mode returns the current session mode.
func (c *Context) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// NoteReceived replaces the last received message. It never expires on
// its own; only a newer message replaces it.
func (c *Context) NoteReceived(msg ReceivedMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastReceived = &msg
}

// LastReceived returns a copy of the last inbound message.
func (c *Context) LastReceived() (ReceivedMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastReceived == nil {
		return ReceivedMessage{}, false
	}
	return *c.lastReceived, true
}

// ArmReply opens the reply window, starting the expiry clock.
func (c *Context) ArmReply(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replyArmed = true
	c.replyArmedAt = now
}

// ReplyActive reports whether the reply window is armed and has not
// expired.
func (c *Context) ReplyActive(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.replyArmed && now.Sub(c.replyArmedAt) <= c.replyExpiry
}

// ClearReply closes the reply window.
func (c *Context) ClearReply() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replyArmed = false
}

// RecordSend appends to the sent-message history and remembers the
// recipient for follow-up commands.
func (c *Context) RecordSend(recipient, message string, kind HistoryKind) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history = append(c.history, SentRecord{Recipient: recipient, Message: message, Kind: kind})
	if len(c.history) > maxMessageHistory {
		c.history = c.history[len(c.history)-maxMessageHistory:]
	}
	c.lastRecipient = recipient
}

// LastRecipient returns the most recent successful send target, or ""
// when no message has been sent.
func (c *Context) LastRecipient() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRecipient
}

// History returns a copy of the sent-message history, oldest first.
func (c *Context) History() []SentRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]SentRecord, len(c.history))
	copy(out, c.history)
	return out
}

// Snapshot is a read-only view of the context for the status surface.
type Snapshot struct {
	Mode             Mode   `json:"mode"`
	LastRecipient    string `json:"last_recipient,omitempty"`
	LastReceivedFrom string `json:"last_received_from,omitempty"`
	ReplyArmed       bool   `json:"reply_armed"`
	MessagesSent     int    `json:"messages_sent"`
}

// Snapshot captures the current context state.
func (c *Context) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Mode:          c.mode,
		LastRecipient: c.lastRecipient,
		ReplyArmed:    c.replyArmed,
		MessagesSent:  len(c.history),
	}
	if c.lastReceived != nil {
		s.LastReceivedFrom = c.lastReceived.SenderName
	}
	return s
}
