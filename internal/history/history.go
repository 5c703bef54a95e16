// Package history defines the bounded-query contract for observation
// retention.
package history

import (
	"context"

	"ringwatch/internal/tracking"
)

// Store is an append-only log of observations, queryable for the most
// recent N in chronological order.
type Store interface {
	Append(ctx context.Context, observations []tracking.Observation) error
	Recent(ctx context.Context, n int) ([]tracking.Observation, error)
}
