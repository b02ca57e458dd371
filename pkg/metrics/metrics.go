// Package metrics exposes Prometheus instrumentation for the
// assistant.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "courier"

var (
	// TurnsTotal counts completed conversation turns by outcome.
	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "turns_total",
		Help:      "Conversation turns processed, by outcome.",
	}, []string{"outcome"})

	// DispatchesTotal counts message dispatch attempts by status.
	DispatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dispatches_total",
		Help:      "Message dispatch attempts, by status.",
	}, []string{"status"})

	// IntentFallbacksTotal counts classifications served by the
	// keyword fallback.
	IntentFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "intent_fallbacks_total",
		Help:      "Intent classifications that fell back to keyword rules.",
	})

	// NotificationsTotal counts inbound message notifications.
	NotificationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Inbound messages announced to the user.",
	})

	// ListenerConnected reports whether the inbound listener holds a
	// live bridge connection.
	ListenerConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "listener_connected",
		Help:      "1 when the message listener is connected to the bridge.",
	})

	// ChatLatency tracks chat completion round-trip time.
	ChatLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "chat_latency_seconds",
		Help:      "Chat model round-trip latency.",
		Buckets:   prometheus.DefBuckets,
	})
)

// Turn outcome label values.
const (
	OutcomeSent     = "sent"
	OutcomeReply    = "reply"
	OutcomeFollowUp = "follow_up"
	OutcomeChat     = "chat"
	OutcomeAborted  = "aborted"
	OutcomeError    = "error"
)

// Dispatch status label values.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)
