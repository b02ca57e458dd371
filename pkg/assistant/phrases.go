package assistant

import "strings"

// Phrase sets driving the session state machine. Matching is
// case-insensitive containment on the transcribed text.
var (
	wakePhrases = []string{"hello", "hi", "computer", "assistant"}

	exitPhrases = []string{"goodbye", "bye", "thanks", "that's all", "stop", "exit"}

	cancelPhrases = []string{"never mind", "no thanks", "skip", "ignore", "cancel"}

	replyKeywords = []string{"reply", "respond", "answer"}

	followUpKeywords = []string{"also", "and also", "plus", "additionally", "too"}

	// newRecipientPhrases disable the follow-up short-circuit so
	// "also tell Sara..." goes through the classifier instead of the
	// previous recipient.
	newRecipientPhrases = []string{"send message to", "tell", "notify"}

	// freshCommandMarkers exclude an utterance from being swallowed as
	// an automatic reply.
	freshCommandMarkers = []string{"send message to", "tell someone", "notify someone"}

	questionWords = []string{"what", "how", "why", "when", "who"}

	affirmatives = []string{"yes", "yeah", "yep", "sure", "correct", "right"}

	negatives = []string{"no", "nope", "wrong"}
)

// Spoken responses.
const (
	greetingLine       = "Hi! What can I help you with?"
	farewellLine       = "Goodbye! Say 'Hello' when you need me again."
	timeoutLine        = "I'm going back to sleep now. Say 'Hello' to wake me up!"
	replyPromptLine    = "Say 'reply' to respond."
	replyCanceledLine  = "Okay, I won't reply."
	sendCanceledLine   = "Okay, I won't send it."
	unclearConfirmLine = "I didn't catch that, so I won't send anything."
	whoDoYouMeanLine   = "I'm not sure who you mean. Please say the name again."
	dispatchFailedLine = "Sorry, I couldn't send the message."
)

func containsAny(text string, phrases []string) bool {
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// containsWord matches any phrase on word boundaries, so "stop"
// does not match inside "stopwatch".
func containsWord(text string, phrases []string) bool {
	lower := strings.ToLower(text)
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '\''
	})
	joined := " " + strings.Join(words, " ") + " "
	for _, p := range phrases {
		if strings.Contains(joined, " "+p+" ") {
			return true
		}
	}
	return false
}

func isWake(text string) bool   { return containsWord(text, wakePhrases) }
func isExit(text string) bool   { return containsAny(text, exitPhrases) }
func isCancel(text string) bool { return containsAny(text, cancelPhrases) }

func hasReplyKeyword(text string) bool {
	return containsWord(text, replyKeywords)
}

func hasFollowUpKeyword(text string) bool {
	return containsWord(text, followUpKeywords)
}

func namesNewRecipient(text string) bool {
	return containsWord(text, newRecipientPhrases)
}

// looksLikeFreshCommand keeps explicit send commands and questions out
// of the automatic-reply path.
func looksLikeFreshCommand(text string) bool {
	return containsAny(text, freshCommandMarkers) || containsWord(text, questionWords)
}

func isAffirmative(text string) bool { return containsWord(text, affirmatives) }
func isNegative(text string) bool    { return containsWord(text, negatives) }

// firstNameToken extracts the first word of a sender's display name
// for contact resolution.
func firstNameToken(name string) string {
	fields := strings.Fields(strings.TrimSpace(name))
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}
