// Package textnorm cleans transcribed command text into literal message
// payloads.
//
// Spoken commands arrive in the third person ("tell him that I'll be
// late"); the delivered message should read in the first person ("I'll be
// late"). All transformations are idempotent: re-applying any of them to
// already-normalized text is a no-op.
package textnorm

import (
	"regexp"
	"strings"
)

var (
	// Leading command verb + pronoun + optional "that".
	commandPronounRe = regexp.MustCompile(`(?i)^\s*(tell|remind|notify|inform|let|ask)\s+(him|her|them)\s+(that\s+)?`)

	// Leading command verb alone.
	commandVerbRe = regexp.MustCompile(`(?i)^\s*(tell|remind|notify|inform|let|ask)\s+`)

	// Leading bare "that" or "to".
	leadingThatRe = regexp.MustCompile(`(?i)^\s*that\s+`)
	leadingToRe   = regexp.MustCompile(`(?i)^\s*to\s+`)

	// Explicit reply keyword with optional comma.
	replyPrefixRe = regexp.MustCompile(`(?i)^\s*(reply|respond|answer)\s*,?\s*`)

	// Follow-up continuation keywords.
	followUpPrefixRe = regexp.MustCompile(`(?i)^\s*(also|and also|plus|additionally|too)\s*,?\s*`)

	whitespaceRe = regexp.MustCompile(`\s+`)
)

// ToFirstPerson strips command phrasing from the front of a message so it
// reads as something the user would say directly.
//
//	"tell him that I'll be late"  -> "I'll be late"
//	"remind her to drink water"   -> "drink water"
func ToFirstPerson(text string) string {
	text = commandPronounRe.ReplaceAllString(text, "")
	text = commandVerbRe.ReplaceAllString(text, "")
	text = leadingThatRe.ReplaceAllString(text, "")
	text = leadingToRe.ReplaceAllString(text, "")
	return collapse(text)
}

// StripReplyPrefix removes a leading reply keyword, leaving the message
// body untouched.
func StripReplyPrefix(text string) string {
	return collapse(replyPrefixRe.ReplaceAllString(text, ""))
}

// StripFollowUpPrefix removes a leading continuation keyword.
func StripFollowUpPrefix(text string) string {
	return collapse(followUpPrefixRe.ReplaceAllString(text, ""))
}

// collapse squeezes whitespace runs to single spaces and trims the ends.
func collapse(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}
