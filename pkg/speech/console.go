package speech

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var (
	_ Transcriber = (*ConsoleTranscriber)(nil)
	_ Speaker     = ConsoleSpeaker{}
)

// ConsoleTranscriber reads typed input as if it were transcribed
// speech. It stands in for a microphone pipeline during development
// and in environments without audio.
type ConsoleTranscriber struct {
	reader *bufio.Reader
	lines  chan string
	once   sync.Once
}

// NewConsoleTranscriber reads from r, or stdin when r is nil.
func NewConsoleTranscriber(r io.Reader) *ConsoleTranscriber {
	if r == nil {
		r = os.Stdin
	}
	return &ConsoleTranscriber{
		reader: bufio.NewReader(r),
		lines:  make(chan string),
	}
}

// pump forwards input lines to the channel. A single goroutine owns
// the reader so lines are never split across Listen calls.
func (c *ConsoleTranscriber) pump() {
	for {
		line, err := c.reader.ReadString('\n')
		if text := strings.TrimSpace(line); text != "" {
			c.lines <- text
		}
		if err != nil {
			close(c.lines)
			return
		}
	}
}

// Listen blocks until a line is typed or the window elapses. An
// elapsed window returns an empty transcript, matching a silent
// microphone chunk.
func (c *ConsoleTranscriber) Listen(ctx context.Context, window time.Duration) (string, error) {
	c.once.Do(func() { go c.pump() })

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(window):
		return "", nil
	case text, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		return text, nil
	}
}

// ConsoleSpeaker prints responses to stdout.
type ConsoleSpeaker struct{}

// Speak writes the line.
func (ConsoleSpeaker) Speak(text string) {
	fmt.Printf("🗣  %s\n", text)
}
