// Package assistant runs the voice conversation loop: wake-word
// activation, turn resolution, recipient tracking and dispatch.
//
// A session is a timed conversation window. Each recognized utterance
// is resolved in strict precedence order: automatic reply to a just
// announced inbound message, explicit reply command, follow-up to the
// last recipient, and finally intent classification. The messaging
// context (last recipient, reply window, sent history) survives
// wake/sleep cycles so "also tell him..." keeps working across
// sessions.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"courier/pkg/chat"
	"courier/pkg/contacts"
	"courier/pkg/convlog"
	"courier/pkg/hub"
	"courier/pkg/intent"
	"courier/pkg/messaging"
	"courier/pkg/metrics"
	"courier/pkg/speech"
	"courier/pkg/textnorm"
)

// ChatService produces conversational replies.
type ChatService interface {
	Reply(ctx context.Context, prompt string, history []chat.Turn) (string, error)
}

var _ ChatService = (*chat.Client)(nil)

// Deps are the collaborators the assistant is wired with. Journal and
// Events are optional.
type Deps struct {
	Transcriber speech.Transcriber
	Speaker     speech.Speaker
	Classifier  intent.Classifier
	Chat        ChatService
	Dispatcher  messaging.Dispatcher
	Directory   *contacts.Directory
	Journal     *convlog.Log
	Events      *hub.Hub
}

// Assistant is the conversation loop.
type Assistant struct {
	cfg  *Config
	deps Deps

	state *Context

	chatHistory   []chat.Turn
	intentHistory []intent.Exchange

	active        atomic.Bool
	justAnnounced atomic.Bool

	pendingMu sync.Mutex
	pending   *ReceivedMessage
}

// New wires an assistant.
func New(deps Deps, opts ...Option) *Assistant {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	return &Assistant{
		cfg:   cfg,
		deps:  deps,
		state: NewContext(cfg.ReplyExpiry),
	}
}

// State exposes the messaging context snapshot for the status surface.
func (a *Assistant) State() Snapshot {
	return a.state.Snapshot()
}

// Active reports whether a conversation window is open.
func (a *Assistant) Active() bool {
	return a.active.Load()
}

func (a *Assistant) now() time.Time {
	return a.cfg.Clock()
}

// Run alternates between waiting for a wake phrase and running a
// conversation session, until ctx is canceled.
func (a *Assistant) Run(ctx context.Context) error {
	a.cfg.Logger.Info("assistant started", "contacts", a.deps.Directory.Len())
	for {
		if err := a.waitForWake(ctx); err != nil {
			return err
		}
		a.runSession(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// waitForWake listens in short chunks until a wake phrase arrives or a
// pending notification replays and auto-activates the session.
func (a *Assistant) waitForWake(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if msg, ok := a.takePending(); ok {
			a.cfg.Logger.Info("waking for pending notification", "from", msg.SenderName)
			a.announce(msg)
			return nil
		}

		text, err := a.deps.Transcriber.Listen(ctx, a.cfg.WakeWindow)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			a.cfg.Logger.Debug("wake listen failed", "error", err)
			if err := a.backoff(ctx); err != nil {
				return err
			}
			continue
		}
		if isWake(text) {
			a.speak(greetingLine)
			return nil
		}
	}
}

// backoff pauses after a failed listen. It returns early when ctx is
// canceled.
func (a *Assistant) backoff(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(a.cfg.ListenBackoff):
		return nil
	}
}

// runSession owns one conversation window. The silence timeout is
// checked before each listen so silence cannot keep a session alive.
func (a *Assistant) runSession(ctx context.Context) {
	a.active.Store(true)
	a.state.SetMode(ModeActive, a.now())
	a.publishState()

	defer func() {
		a.active.Store(false)
		a.state.SetMode(ModeDormant, a.now())
		a.publishState()
	}()

	lastValid := a.now()
	for {
		if ctx.Err() != nil {
			return
		}
		if a.now().Sub(lastValid) > a.cfg.ConversationTimeout {
			a.speak(timeoutLine)
			return
		}

		text, err := a.deps.Transcriber.Listen(ctx, a.cfg.ListenWindow)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			a.cfg.Logger.Warn("transcription failed", "error", err)
			if a.backoff(ctx) != nil {
				return
			}
			continue
		}

		text = strings.TrimSpace(text)
		if len(text) <= 2 {
			continue
		}

		// The chunk right after an announcement tends to contain our
		// own speech; drop the first real chunk, not a silent one.
		if a.justAnnounced.CompareAndSwap(true, false) {
			lastValid = a.now()
			continue
		}
		lastValid = a.now()
		a.publish(hub.EventTranscript, map[string]string{"text": text})

		// Cancel is checked before exit so "no thanks" closes the
		// reply window instead of ending the session.
		if isCancel(text) && a.state.ReplyActive(a.now()) {
			a.state.ClearReply()
			a.speak(replyCanceledLine)
			metrics.TurnsTotal.WithLabelValues(metrics.OutcomeAborted).Inc()
			continue
		}
		if isExit(text) {
			a.speak(farewellLine)
			return
		}

		a.handleUtterance(ctx, text)
	}
}

// handleUtterance applies the turn-resolution precedence.
func (a *Assistant) handleUtterance(ctx context.Context, text string) {
	now := a.now()

	// 1. Automatic reply: the reply window is open and the utterance
	// is not itself a fresh command or a question.
	if a.state.ReplyActive(now) {
		if msg, ok := a.state.LastReceived(); ok && !looksLikeFreshCommand(text) {
			body := textnorm.ToFirstPerson(text)
			a.replyTo(ctx, text, msg, body, KindAutoReply)
			return
		}
	}

	// 2. Explicit reply command works even outside the reply window.
	if hasReplyKeyword(text) {
		if msg, ok := a.state.LastReceived(); ok {
			// A bare "reply" with no message body has nothing to
			// send; fall through to the classifier.
			body := textnorm.ToFirstPerson(textnorm.StripReplyPrefix(text))
			if len(body) > 2 {
				a.replyTo(ctx, text, msg, body, KindReply)
				return
			}
		}
		// No inbound message to reply to; fall through to the
		// classifier instead of erroring.
	}

	// 3. Follow-up to the last recipient, unless a new recipient is
	// named explicitly.
	if hasFollowUpKeyword(text) && a.state.LastRecipient() != "" && !namesNewRecipient(text) {
		body := textnorm.ToFirstPerson(textnorm.StripFollowUpPrefix(text))
		a.sendTo(ctx, text, a.state.LastRecipient(), body, KindFollowUp)
		return
	}

	// 4. Everything else goes through the classifier.
	a.classifyAndAct(ctx, text)
}

// replyTo resolves the sender's first name against the directory and
// dispatches the reply.
func (a *Assistant) replyTo(ctx context.Context, utterance string, msg ReceivedMessage, body string, kind HistoryKind) {
	first := firstNameToken(msg.SenderName)
	match := contacts.Resolve(first, a.deps.Directory)
	if !match.Matched {
		a.speak(fmt.Sprintf("I don't have %s in your contacts.", msg.SenderName))
		metrics.TurnsTotal.WithLabelValues(metrics.OutcomeAborted).Inc()
		return
	}
	// The sender is known, so a fuzzy hit needs no confirmation here.
	a.sendTo(ctx, utterance, match.Key, body, kind)
}

// classifyAndAct delegates to the intent classifier and acts on the
// gated result.
func (a *Assistant) classifyAndAct(ctx context.Context, text string) {
	res, err := a.deps.Classifier.Classify(ctx, text, a.recentIntents())
	if err != nil {
		// The classifier chain falls back internally; an error here
		// means even the fallback failed. Treat the turn as chat.
		a.cfg.Logger.Warn("intent classification failed", "error", err)
		res = intent.Result{Action: intent.ActionGeneralChat}
	}
	res = intent.Gate(res)

	if res.Action != intent.ActionSendMessage {
		a.chatTurn(ctx, text)
		return
	}

	recipient := res.Recipient
	if intent.VagueRecipient(recipient) {
		recipient = a.substitutePronoun()
		if recipient == "" {
			a.speak(whoDoYouMeanLine)
			metrics.TurnsTotal.WithLabelValues(metrics.OutcomeAborted).Inc()
			return
		}
	}

	match := contacts.Resolve(recipient, a.deps.Directory)
	if !match.Matched {
		a.speak(fmt.Sprintf("I couldn't find %s in your contacts.", recipient))
		metrics.TurnsTotal.WithLabelValues(metrics.OutcomeAborted).Inc()
		return
	}

	key := match.Key
	if match.NeedsConfirmation {
		confirmed, ok := a.confirmRecipient(ctx, match)
		if !ok {
			metrics.TurnsTotal.WithLabelValues(metrics.OutcomeAborted).Inc()
			return
		}
		key = confirmed
	}

	body := textnorm.ToFirstPerson(res.Message)
	a.sendTo(ctx, text, key, body, KindSent)
}

// substitutePronoun resolves a vague recipient from context: the last
// inbound sender wins over the last messaged recipient.
func (a *Assistant) substitutePronoun() string {
	if msg, ok := a.state.LastReceived(); ok {
		return firstNameToken(msg.SenderName)
	}
	return a.state.LastRecipient()
}

// confirmRecipient runs the yes/no sub-flow for a low-confidence
// match: top candidate first, then one alternative.
func (a *Assistant) confirmRecipient(ctx context.Context, match contacts.Match) (string, bool) {
	candidates := []string{match.Key}
	if len(match.Alternatives) > 0 {
		candidates = append(candidates, match.Alternatives[0])
	}

	for i, cand := range candidates {
		a.speak(fmt.Sprintf("Did you mean %s?", displayName(cand)))

		resp, err := a.deps.Transcriber.Listen(ctx, a.cfg.ConfirmWindow)
		if err != nil || strings.TrimSpace(resp) == "" {
			a.speak(unclearConfirmLine)
			return "", false
		}
		switch {
		case isAffirmative(resp):
			return cand, true
		case isNegative(resp) || isCancel(resp):
			if i == len(candidates)-1 {
				a.speak(sendCanceledLine)
				return "", false
			}
			// Offer the next candidate.
		default:
			a.speak(unclearConfirmLine)
			return "", false
		}
	}

	a.speak(sendCanceledLine)
	return "", false
}

// sendTo dispatches body to the contact behind key and updates the
// messaging context on success.
func (a *Assistant) sendTo(ctx context.Context, utterance, key, body string, kind HistoryKind) bool {
	addr, ok := a.deps.Directory.Address(key)
	if !ok {
		a.speak(whoDoYouMeanLine)
		metrics.TurnsTotal.WithLabelValues(metrics.OutcomeAborted).Inc()
		return false
	}

	sctx, cancel := context.WithTimeout(ctx, a.cfg.DispatchTimeout)
	defer cancel()

	res, err := a.deps.Dispatcher.Send(sctx, addr, body)
	if err != nil || !res.Success {
		if err != nil {
			a.cfg.Logger.Error("dispatch failed", "recipient", key, "error", err)
		} else {
			a.cfg.Logger.Error("dispatch rejected", "recipient", key, "reason", res.Error)
		}
		metrics.DispatchesTotal.WithLabelValues(metrics.StatusFailed).Inc()
		metrics.TurnsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		a.speak(dispatchFailedLine)
		return false
	}

	a.state.RecordSend(key, body, kind)
	if kind == KindAutoReply || kind == KindReply {
		a.state.ClearReply()
	}

	metrics.DispatchesTotal.WithLabelValues(metrics.StatusOK).Inc()
	metrics.TurnsTotal.WithLabelValues(outcomeForKind(kind)).Inc()
	a.publish(hub.EventDispatch, map[string]string{
		"recipient": key,
		"kind":      string(kind),
	})

	line := fmt.Sprintf("Message sent to %s.", displayName(key))
	a.speak(line)
	a.record(utterance, line)
	a.rememberIntent(utterance, line, key)
	return true
}

// chatTurn forwards the utterance to the language model with bounded
// history.
func (a *Assistant) chatTurn(ctx context.Context, text string) {
	start := time.Now()
	reply, err := a.deps.Chat.Reply(ctx, text, a.chatHistory)
	metrics.ChatLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		a.cfg.Logger.Warn("chat completion failed", "error", err)
		a.speak("Sorry, I'm having trouble thinking right now.")
		metrics.TurnsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return
	}

	a.speak(reply)
	a.publish(hub.EventResponse, map[string]string{"text": reply})
	metrics.TurnsTotal.WithLabelValues(metrics.OutcomeChat).Inc()

	a.chatHistory = append(a.chatHistory, chat.Turn{User: text, Assistant: reply})
	if len(a.chatHistory) > a.cfg.ChatContext {
		a.chatHistory = a.chatHistory[len(a.chatHistory)-a.cfg.ChatContext:]
	}

	a.record(text, reply)
	a.rememberIntent(text, reply, "")
}

// OnInbound is the notification callback wired into the message
// listener. It must not block: announcements run in the background so
// the listener keeps reading.
func (a *Assistant) OnInbound(in messaging.Inbound) {
	msg := ReceivedMessage{
		SenderName: in.SenderName,
		Text:       in.Text,
		ReceivedAt: in.ReceivedAt,
	}
	a.state.NoteReceived(msg)
	metrics.NotificationsTotal.Inc()
	a.publish(hub.EventNotification, map[string]string{"from": in.SenderName})

	if a.active.Load() {
		a.state.ArmReply(a.now())
		a.justAnnounced.Store(true)
		go a.speak(announcementLine(msg))
		return
	}

	a.pendingMu.Lock()
	a.pending = &msg
	a.pendingMu.Unlock()
}

// announce replays a notification at wake time and opens the reply
// window.
func (a *Assistant) announce(msg ReceivedMessage) {
	a.speak(announcementLine(msg))
	a.state.ArmReply(a.now())
	a.justAnnounced.Store(true)
}

func (a *Assistant) takePending() (ReceivedMessage, bool) {
	a.pendingMu.Lock()
	defer a.pendingMu.Unlock()
	if a.pending == nil {
		return ReceivedMessage{}, false
	}
	msg := *a.pending
	a.pending = nil
	return msg, true
}

func announcementLine(msg ReceivedMessage) string {
	return fmt.Sprintf("New message from %s: %s. %s", msg.SenderName, msg.Text, replyPromptLine)
}

func (a *Assistant) speak(text string) {
	if text == "" {
		return
	}
	a.deps.Speaker.Speak(text)
}

// record appends the exchange to the conversation log.
func (a *Assistant) record(user, ai string) {
	if a.deps.Journal == nil {
		return
	}
	if _, err := a.deps.Journal.Append(user, ai); err != nil {
		a.cfg.Logger.Warn("failed to persist conversation log", "error", err)
	}
}

// rememberIntent appends to the bounded context handed to the
// classifier.
func (a *Assistant) rememberIntent(user, assistant, recipient string) {
	a.intentHistory = append(a.intentHistory, intent.Exchange{
		User:      user,
		Assistant: assistant,
		Recipient: recipient,
	})
	if len(a.intentHistory) > a.cfg.IntentContext {
		a.intentHistory = a.intentHistory[len(a.intentHistory)-a.cfg.IntentContext:]
	}
}

func (a *Assistant) recentIntents() []intent.Exchange {
	out := make([]intent.Exchange, len(a.intentHistory))
	copy(out, a.intentHistory)
	return out
}

func (a *Assistant) publish(typ string, payload any) {
	if a.deps.Events == nil {
		return
	}
	a.deps.Events.Publish(hub.NewEvent(typ, payload))
}

func (a *Assistant) publishState() {
	a.publish(hub.EventState, a.state.Snapshot())
}

func displayName(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}

func outcomeForKind(kind HistoryKind) string {
	switch kind {
	case KindReply, KindAutoReply:
		return metrics.OutcomeReply
	case KindFollowUp:
		return metrics.OutcomeFollowUp
	default:
		return metrics.OutcomeSent
	}
}
