package history

import (
	"context"
	"sync"

	"ringwatch/internal/tracking"
)

// Memory is the in-process history store used when no database is
// configured. Growth is unbounded for the process lifetime; retention caps
// are a deployment concern handled by the Postgres-backed store.
type Memory struct {
	mu           sync.Mutex
	observations []tracking.Observation
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Append records observations in arrival order.
func (m *Memory) Append(_ context.Context, observations []tracking.Observation) error {
	if len(observations) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observations = append(m.observations, observations...)
	return nil
}

// Recent returns the last n observations in chronological order. n <= 0
// yields an empty slice.
func (m *Memory) Recent(_ context.Context, n int) ([]tracking.Observation, error) {
	if n <= 0 {
		return []tracking.Observation{}, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	start := len(m.observations) - n
	if start < 0 {
		start = 0
	}
	recent := make([]tracking.Observation, len(m.observations)-start)
	copy(recent, m.observations[start:])
	return recent, nil
}

var _ Store = (*Memory)(nil)
