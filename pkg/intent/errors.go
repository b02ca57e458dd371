package intent

import "errors"

var (
	// ErrNoChoices means the completion API returned no usable output.
	ErrNoChoices = errors.New("intent: no completion choices")

	// ErrUnparseable means the model output was not the expected JSON
	// schema.
	ErrUnparseable = errors.New("intent: unparseable classifier output")
)
