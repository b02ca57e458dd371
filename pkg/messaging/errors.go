package messaging

import "errors"

var (
	// ErrBridgeUnavailable means the bridge could not be dialed.
	ErrBridgeUnavailable = errors.New("messaging: bridge unavailable")

	// ErrDispatchTimeout means no ack arrived within the dispatch
	// timeout.
	ErrDispatchTimeout = errors.New("messaging: dispatch timed out")
)
