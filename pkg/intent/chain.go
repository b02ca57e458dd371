package intent

import (
	"context"
	"log/slog"

	"courier/pkg/metrics"
)

var _ Classifier = (*Chain)(nil)

// Chain tries the primary classifier and falls back to the secondary
// when the primary errors. Classification must always produce a result;
// a degraded answer beats no answer.
type Chain struct {
	primary  Classifier
	fallback Classifier
	logger   *slog.Logger
}

// NewChain builds a classifier chain. fallback must not fail in
// practice; Rules satisfies that.
func NewChain(primary, fallback Classifier, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{primary: primary, fallback: fallback, logger: logger}
}

// Classify delegates to the primary classifier, switching to the
// fallback on error.
func (c *Chain) Classify(ctx context.Context, utterance string, history []Exchange) (Result, error) {
	result, err := c.primary.Classify(ctx, utterance, history)
	if err == nil {
		return result, nil
	}

	c.logger.Warn("primary intent classifier failed, using fallback", "error", err)
	metrics.IntentFallbacksTotal.Inc()

	return c.fallback.Classify(ctx, utterance, history)
}
