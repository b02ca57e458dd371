// Package speech defines the audio boundary of the assistant.
//
// Courier never touches raw audio itself: capture, speech-to-text, and
// text-to-speech are external collaborators. The session loop only needs
// a way to listen for a bounded window and to speak a line, so that is
// the whole surface here. Real engines (OpenAI Whisper, local TTS, a
// microphone daemon) implement these interfaces in the binary wiring.
package speech

import (
	"context"
	"time"
)

// Transcriber listens for up to the given window and returns the
// transcribed text. An empty string means non-speech or low-volume
// input; callers must treat it as silence, never as an error.
type Transcriber interface {
	Listen(ctx context.Context, window time.Duration) (string, error)
}

// Speaker voices a line to the user. Blocking until playback finishes is
// acceptable; so is fire-and-forget.
type Speaker interface {
	Speak(text string)
}

// TranscriberFunc adapts a function to the Transcriber interface.
type TranscriberFunc func(ctx context.Context, window time.Duration) (string, error)

// Listen calls f.
func (f TranscriberFunc) Listen(ctx context.Context, window time.Duration) (string, error) {
	return f(ctx, window)
}

// SpeakerFunc adapts a function to the Speaker interface.
type SpeakerFunc func(text string)

// Speak calls f.
func (f SpeakerFunc) Speak(text string) {
	f(text)
}
