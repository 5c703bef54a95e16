package alerting

import (
	"context"

	"github.com/rs/zerolog"
)

// NoopNotifier logs and discards alert events. It is used when no
// notification backend is configured.
type NoopNotifier struct {
	logger zerolog.Logger
}

// NewNoopNotifier constructs a notifier that discards alerts with a log line.
func NewNoopNotifier(logger zerolog.Logger) *NoopNotifier {
	return &NoopNotifier{logger: logger.With().Str("component", "alert_noop").Logger()}
}

// Notify logs the discarded event.
func (n *NoopNotifier) Notify(_ context.Context, sink string, event Event) error {
	n.logger.Debug().
		Str("sink", sink).
		Str("source", string(event.Observation.Source)).
		Str("variant", string(event.Observation.Variant)).
		Str("price", event.Observation.Price.StringFixed(2)).
		Msg("alert discarded (no notification backend configured)")
	return nil
}

var _ Notifier = (*NoopNotifier)(nil)
