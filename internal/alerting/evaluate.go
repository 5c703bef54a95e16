// Package alerting decides which observations are alert-worthy and delivers
// alert events to a notification sink.
package alerting

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"ringwatch/internal/tracking"
)

// Event is one alert emission: exactly one qualifying observation, never a
// batch.
type Event struct {
	Observation tracking.Observation `json:"observation"`
	TargetPrice decimal.Decimal      `json:"target_price"`
	FiredAt     time.Time            `json:"fired_at"`
}

// Evaluate returns the observations priced at or below target, preserving
// input order. It is a pure function with no memory of prior sweeps: while a
// deal persists, every sweep re-qualifies it and re-alerts. That is the
// intended behavior, not missing deduplication.
func Evaluate(observations []tracking.Observation, target decimal.Decimal) []tracking.Observation {
	return lo.Filter(observations, func(o tracking.Observation, _ int) bool {
		return o.Price.LessThanOrEqual(target)
	})
}
