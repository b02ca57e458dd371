package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"courier/pkg/chat"
	"courier/pkg/contacts"
	"courier/pkg/intent"
	"courier/pkg/messaging"
	"courier/pkg/speech"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	assistant   *Assistant
	transcriber *speech.MockTranscriber
	speaker     *speech.MockSpeaker
	classifier  *intent.Mock
	chat        *chat.Mock
	dispatcher  *messaging.MockDispatcher
	clock       *fakeClock
}

func newFixture(script ...string) *fixture {
	f := &fixture{
		transcriber: &speech.MockTranscriber{Script: script},
		speaker:     &speech.MockSpeaker{},
		classifier:  intent.NewMock(),
		chat:        &chat.Mock{},
		dispatcher:  messaging.NewMockDispatcher(),
		clock:       &fakeClock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)},
	}

	dir := contacts.New([]contacts.Entry{
		{Name: "Alice", Address: "+1000"},
		{Name: "John", Address: "+1111"},
		{Name: "Joan", Address: "+1222"},
	})

	f.assistant = New(Deps{
		Transcriber: f.transcriber,
		Speaker:     f.speaker,
		Classifier:  f.classifier,
		Chat:        f.chat,
		Dispatcher:  f.dispatcher,
		Directory:   dir,
	}, WithClock(f.clock.Now))

	return f
}

func (f *fixture) spokenContains(sub string) bool {
	for _, line := range f.speaker.Spoken() {
		if strings.Contains(line, sub) {
			return true
		}
	}
	return false
}

func TestAutoReplyPrecedence(t *testing.T) {
	f := newFixture()
	a := f.assistant

	a.state.NoteReceived(ReceivedMessage{SenderName: "Alice Smith", Text: "Are you coming?", ReceivedAt: f.clock.Now()})
	a.state.ArmReply(f.clock.Now())

	a.handleUtterance(context.Background(), "tell her I'm on my way")

	sent := f.dispatcher.Sent()
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	if sent[0].Recipient != "+1000" {
		t.Errorf("recipient = %q, want alice's address", sent[0].Recipient)
	}
	if sent[0].Text != "I'm on my way" {
		t.Errorf("text = %q, want first-person body", sent[0].Text)
	}
	if len(f.classifier.Calls()) != 0 {
		t.Error("auto reply must not call the classifier")
	}
	if a.state.ReplyActive(f.clock.Now()) {
		t.Error("reply window should close after a successful reply")
	}
}

func TestAutoReplySkipsFreshCommands(t *testing.T) {
	f := newFixture()
	a := f.assistant

	a.state.NoteReceived(ReceivedMessage{SenderName: "Alice", Text: "hi"})
	a.state.ArmReply(f.clock.Now())

	f.classifier.ClassifyFunc = func(context.Context, string, []intent.Exchange) (intent.Result, error) {
		return intent.Result{
			Action: intent.ActionSendMessage, Recipient: "john",
			Message: "dinner is at eight", Confidence: 0.95,
		}, nil
	}

	a.handleUtterance(context.Background(), "send message to John saying dinner is at eight")

	sent := f.dispatcher.Sent()
	if len(sent) != 1 || sent[0].Recipient != "+1111" {
		t.Fatalf("fresh command should route to john, got %+v", sent)
	}
	if len(f.classifier.Calls()) != 1 {
		t.Error("fresh command should go through the classifier")
	}
}

func TestAutoReplyExpires(t *testing.T) {
	f := newFixture()
	a := f.assistant

	a.state.NoteReceived(ReceivedMessage{SenderName: "Alice", Text: "hi"})
	a.state.ArmReply(f.clock.Now())
	f.clock.Advance(61 * time.Second)

	a.handleUtterance(context.Background(), "I had a great weekend")

	if len(f.dispatcher.Sent()) != 0 {
		t.Error("expired reply window must not dispatch")
	}
	if len(f.classifier.Calls()) != 1 {
		t.Error("expired reply window should fall through to the classifier")
	}
}

func TestExplicitReplyOverride(t *testing.T) {
	f := newFixture()
	a := f.assistant

	// Reply window not armed; the explicit keyword still works.
	a.state.NoteReceived(ReceivedMessage{SenderName: "John Smith", Text: "call me"})

	a.handleUtterance(context.Background(), "reply, I'll call you later")

	sent := f.dispatcher.Sent()
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	if sent[0].Recipient != "+1111" || sent[0].Text != "I'll call you later" {
		t.Errorf("unexpected dispatch: %+v", sent[0])
	}
}

func TestReplyWithoutInboundFallsThrough(t *testing.T) {
	f := newFixture()

	f.assistant.handleUtterance(context.Background(), "answer me this, what is Go?")

	if len(f.dispatcher.Sent()) != 0 {
		t.Error("nothing to reply to, nothing should send")
	}
	if len(f.classifier.Calls()) != 1 {
		t.Error("reply keyword without an inbound message should hit the classifier")
	}
}

func TestBareReplyKeywordFallsThrough(t *testing.T) {
	f := newFixture()
	a := f.assistant

	a.state.NoteReceived(ReceivedMessage{SenderName: "Alice", Text: "hi"})

	a.handleUtterance(context.Background(), "reply")

	if sent := f.dispatcher.Sent(); len(sent) != 0 {
		t.Errorf("bare reply keyword must not dispatch, sent %+v", sent)
	}
	if len(f.classifier.Calls()) != 1 {
		t.Error("bare reply keyword should fall through to the classifier")
	}
}

func TestFollowUpShortCircuit(t *testing.T) {
	f := newFixture()
	a := f.assistant

	a.state.RecordSend("john", "see you at noon", KindSent)

	a.handleUtterance(context.Background(), "also remind him about the meeting")

	sent := f.dispatcher.Sent()
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	if sent[0].Recipient != "+1111" {
		t.Errorf("recipient = %q, want john's address", sent[0].Recipient)
	}
	if sent[0].Text != "about the meeting" {
		t.Errorf("text = %q, want stripped body", sent[0].Text)
	}
	if len(f.classifier.Calls()) != 0 {
		t.Error("follow-up must not call the classifier")
	}
}

func TestFollowUpNamingNewRecipientUsesClassifier(t *testing.T) {
	f := newFixture()
	a := f.assistant

	a.state.RecordSend("john", "hi", KindSent)
	f.classifier.ClassifyFunc = func(context.Context, string, []intent.Exchange) (intent.Result, error) {
		return intent.Result{Action: intent.ActionSendMessage, Recipient: "joan", Message: "hello", Confidence: 0.95}, nil
	}

	a.handleUtterance(context.Background(), "also tell Joan hello")

	sent := f.dispatcher.Sent()
	if len(sent) != 1 || sent[0].Recipient != "+1222" {
		t.Fatalf("naming a new recipient should reroute, got %+v", sent)
	}
	if len(f.classifier.Calls()) != 1 {
		t.Error("expected a classifier call")
	}
}

func TestPronounSubstitution(t *testing.T) {
	t.Run("last messaged recipient", func(t *testing.T) {
		f := newFixture()
		f.assistant.state.RecordSend("john", "hi", KindSent)
		f.classifier.ClassifyFunc = func(context.Context, string, []intent.Exchange) (intent.Result, error) {
			return intent.Result{Action: intent.ActionSendMessage, Recipient: "him", Message: "drink water", Confidence: 0.9}, nil
		}

		f.assistant.handleUtterance(context.Background(), "remind him to drink water")

		sent := f.dispatcher.Sent()
		if len(sent) != 1 || sent[0].Recipient != "+1111" {
			t.Fatalf("pronoun should resolve to john, got %+v", sent)
		}
	})

	t.Run("inbound sender wins over last recipient", func(t *testing.T) {
		f := newFixture()
		f.assistant.state.RecordSend("john", "hi", KindSent)
		f.assistant.state.NoteReceived(ReceivedMessage{SenderName: "Alice Smith", Text: "hey"})
		f.classifier.ClassifyFunc = func(context.Context, string, []intent.Exchange) (intent.Result, error) {
			return intent.Result{Action: intent.ActionSendMessage, Recipient: "her", Message: "on my way", Confidence: 0.9}, nil
		}

		f.assistant.handleUtterance(context.Background(), "tell her I'm on my way")

		sent := f.dispatcher.Sent()
		if len(sent) != 1 || sent[0].Recipient != "+1000" {
			t.Fatalf("pronoun should resolve to alice, got %+v", sent)
		}
	})

	t.Run("no context asks for clarification", func(t *testing.T) {
		f := newFixture()
		f.classifier.ClassifyFunc = func(context.Context, string, []intent.Exchange) (intent.Result, error) {
			return intent.Result{Action: intent.ActionSendMessage, Recipient: "him", Message: "hi", Confidence: 0.9}, nil
		}

		f.assistant.handleUtterance(context.Background(), "tell him hi")

		if len(f.dispatcher.Sent()) != 0 {
			t.Error("unresolvable pronoun must not dispatch")
		}
		if !f.spokenContains(whoDoYouMeanLine) {
			t.Error("expected a clarification request")
		}
	})
}

func TestConfidenceGateRoutesToChat(t *testing.T) {
	f := newFixture()
	f.classifier.ClassifyFunc = func(context.Context, string, []intent.Exchange) (intent.Result, error) {
		return intent.Result{Action: intent.ActionSendMessage, Recipient: "john", Message: "maybe", Confidence: 0.65}, nil
	}

	f.assistant.handleUtterance(context.Background(), "john might want to know")

	if len(f.dispatcher.Sent()) != 0 {
		t.Error("low-confidence send must not dispatch")
	}
	if len(f.chat.Prompts()) != 1 {
		t.Error("low-confidence send should be answered as chat")
	}
}

func TestRecipientConfirmation(t *testing.T) {
	classify := func(context.Context, string, []intent.Exchange) (intent.Result, error) {
		return intent.Result{Action: intent.ActionSendMessage, Recipient: "jon", Message: "hello", Confidence: 0.95}, nil
	}

	t.Run("affirmative confirms top candidate", func(t *testing.T) {
		f := newFixture("yes")
		f.classifier.ClassifyFunc = classify

		f.assistant.handleUtterance(context.Background(), "send a message to Jon saying hello")

		sent := f.dispatcher.Sent()
		if len(sent) != 1 || sent[0].Recipient != "+1111" {
			t.Fatalf("confirmation should dispatch to john, got %+v", sent)
		}
		if !f.spokenContains("Did you mean john?") {
			t.Error("expected a confirmation prompt")
		}
	})

	t.Run("negative offers the alternative", func(t *testing.T) {
		f := newFixture("no", "yes")
		f.classifier.ClassifyFunc = classify

		f.assistant.handleUtterance(context.Background(), "send a message to Jon saying hello")

		sent := f.dispatcher.Sent()
		if len(sent) != 1 || sent[0].Recipient != "+1222" {
			t.Fatalf("second confirmation should dispatch to joan, got %+v", sent)
		}
	})

	t.Run("two negatives abort", func(t *testing.T) {
		f := newFixture("no", "no")
		f.classifier.ClassifyFunc = classify

		f.assistant.handleUtterance(context.Background(), "send a message to Jon saying hello")

		if len(f.dispatcher.Sent()) != 0 {
			t.Error("double negative must abort the send")
		}
		if !f.spokenContains(sendCanceledLine) {
			t.Error("expected a cancellation message")
		}
	})

	t.Run("unparseable response aborts", func(t *testing.T) {
		f := newFixture("banana")
		f.classifier.ClassifyFunc = classify

		f.assistant.handleUtterance(context.Background(), "send a message to Jon saying hello")

		if len(f.dispatcher.Sent()) != 0 {
			t.Error("unclear confirmation must abort the send")
		}
		if !f.spokenContains(unclearConfirmLine) {
			t.Error("expected the unclear-confirmation message")
		}
	})
}

func TestUnknownRecipient(t *testing.T) {
	f := newFixture()
	f.classifier.ClassifyFunc = func(context.Context, string, []intent.Exchange) (intent.Result, error) {
		return intent.Result{Action: intent.ActionSendMessage, Recipient: "zebediah", Message: "hi", Confidence: 0.95}, nil
	}

	f.assistant.handleUtterance(context.Background(), "tell Zebediah hi")

	if len(f.dispatcher.Sent()) != 0 {
		t.Error("unmatched recipient must not dispatch")
	}
	if !f.spokenContains("couldn't find") {
		t.Error("expected a not-found message")
	}
}

func TestDispatchFailure(t *testing.T) {
	f := newFixture()
	f.dispatcher.SendFunc = func(context.Context, string, string) (messaging.SendResult, error) {
		return messaging.SendResult{}, errors.New("bridge down")
	}
	f.assistant.state.RecordSend("john", "earlier", KindSent)

	f.assistant.handleUtterance(context.Background(), "also say hi")

	if !f.spokenContains(dispatchFailedLine) {
		t.Error("expected a dispatch failure message")
	}
	history := f.assistant.state.History()
	if len(history) != 1 {
		t.Errorf("failed dispatch must not be recorded, history = %+v", history)
	}
}

func TestChatFallback(t *testing.T) {
	f := newFixture()

	f.assistant.handleUtterance(context.Background(), "what's the capital of France?")

	if len(f.chat.Prompts()) != 1 {
		t.Fatalf("chat prompts = %d, want 1", len(f.chat.Prompts()))
	}
	if !f.spokenContains("Okay.") {
		t.Error("chat reply should be spoken")
	}
}

func TestSessionTimeout(t *testing.T) {
	f := newFixture()
	f.transcriber.ListenFunc = func(context.Context, time.Duration) (string, error) {
		f.clock.Advance(61 * time.Second)
		return "", nil
	}

	f.assistant.runSession(context.Background())

	spoken := f.speaker.Spoken()
	if len(spoken) != 1 || spoken[0] != timeoutLine {
		t.Errorf("spoken = %v, want exactly one timeout farewell", spoken)
	}
	if f.assistant.state.Mode() != ModeDormant {
		t.Errorf("mode = %q, want dormant after timeout", f.assistant.state.Mode())
	}
}

func TestSessionExitPhrase(t *testing.T) {
	f := newFixture("goodbye")

	f.assistant.runSession(context.Background())

	if !f.spokenContains(farewellLine) {
		t.Error("exit phrase should produce a farewell")
	}
	if f.assistant.state.Mode() != ModeDormant {
		t.Error("session should be dormant after exit")
	}
}

func TestAnnouncementEchoSkipped(t *testing.T) {
	f := newFixture("", "New message from Alice: hi. Say 'reply' to respond.", "goodbye")
	a := f.assistant

	a.state.NoteReceived(ReceivedMessage{SenderName: "Alice", Text: "hi"})
	a.state.ArmReply(f.clock.Now())
	a.justAnnounced.Store(true)

	a.runSession(context.Background())

	// The silent chunk must not consume the skip; the echo chunk after
	// it is the one to drop.
	if sent := f.dispatcher.Sent(); len(sent) != 0 {
		t.Errorf("announcement echo must not dispatch, sent %+v", sent)
	}
	if len(f.classifier.Calls()) != 0 {
		t.Error("announcement echo must not reach the classifier")
	}
}

func TestWakeLoopBacksOffOnListenErrors(t *testing.T) {
	f := newFixture()
	f.assistant.cfg.ListenBackoff = 20 * time.Millisecond

	calls := 0
	f.transcriber.ListenFunc = func(context.Context, time.Duration) (string, error) {
		calls++
		if calls <= 3 {
			return "", errors.New("stream closed")
		}
		return "hello", nil
	}

	start := time.Now()
	if err := f.assistant.waitForWake(context.Background()); err != nil {
		t.Fatalf("waitForWake: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("elapsed = %v, want at least one backoff pause per failed listen", elapsed)
	}
}

func TestCancelPhraseClearsReply(t *testing.T) {
	f := newFixture("never mind", "goodbye")
	a := f.assistant

	a.state.NoteReceived(ReceivedMessage{SenderName: "Alice", Text: "hi"})
	a.state.ArmReply(f.clock.Now())

	a.runSession(context.Background())

	if a.state.ReplyActive(f.clock.Now()) {
		t.Error("cancel phrase should close the reply window")
	}
	if !f.spokenContains(replyCanceledLine) {
		t.Error("expected the reply-canceled message")
	}
	if len(f.dispatcher.Sent()) != 0 {
		t.Error("cancel must not dispatch anything")
	}
}

func TestOnInboundWhileDormant(t *testing.T) {
	f := newFixture()
	a := f.assistant

	a.OnInbound(messaging.Inbound{SenderName: "Alice", Text: "hi", ReceivedAt: f.clock.Now()})

	if msg, ok := a.state.LastReceived(); !ok || msg.SenderName != "Alice" {
		t.Fatalf("last received = %+v, want alice's message", msg)
	}
	pending, ok := a.takePending()
	if !ok || pending.Text != "hi" {
		t.Fatalf("pending = %+v, want the stored notification", pending)
	}
	if _, ok := a.takePending(); ok {
		t.Error("pending notification should be consumed once")
	}
}

func TestOnInboundWhileActive(t *testing.T) {
	f := newFixture()
	a := f.assistant
	a.active.Store(true)

	a.OnInbound(messaging.Inbound{SenderName: "Alice", Text: "lunch?", ReceivedAt: f.clock.Now()})

	if !a.state.ReplyActive(f.clock.Now()) {
		t.Error("inbound during a session should arm the reply window")
	}
	if _, ok := a.takePending(); ok {
		t.Error("inbound during a session must not queue a pending replay")
	}

	deadline := time.Now().Add(time.Second)
	for !f.spokenContains("New message from Alice") {
		if time.Now().After(deadline) {
			t.Fatal("announcement was never spoken")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
