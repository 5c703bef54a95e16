package alerting

import "context"

// Notifier delivers a single alert event to a sink. The sink identifier is
// opaque to callers; each implementation interprets it as its own routing
// key.
type Notifier interface {
	Notify(ctx context.Context, sink string, event Event) error
}
