package tracking

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Bounds for operator-controlled settings. These mirror the product's sanity
// range: the tracked ring never retails outside these figures.
var (
	MinTargetPrice = decimal.NewFromInt(100)
	MaxTargetPrice = decimal.NewFromInt(600)
)

const (
	MinInterval = 10 * time.Minute
	MaxInterval = 24 * time.Hour
)

var (
	// ErrPriceOutOfRange rejects target prices outside [MinTargetPrice, MaxTargetPrice].
	ErrPriceOutOfRange = fmt.Errorf("target price must be between %s and %s", MinTargetPrice, MaxTargetPrice)
	// ErrIntervalOutOfRange rejects intervals outside [MinInterval, MaxInterval].
	ErrIntervalOutOfRange = errors.New("check interval must be between 10 minutes and 24 hours")
	// ErrNoVariants rejects an empty tracked-variant set.
	ErrNoVariants = errors.New("at least one variant must be tracked")
)

// InvalidVariantsError reports variants outside the known enumeration.
type InvalidVariantsError struct {
	Invalid []VariantID
}

func (e *InvalidVariantsError) Error() string {
	names := make([]string, len(e.Invalid))
	for i, v := range e.Invalid {
		names[i] = string(v)
	}
	return fmt.Sprintf("invalid variants: %s", strings.Join(names, ", "))
}

// Config is the mutable operator-controlled tracking state. It is owned by
// the scheduler and persisted through a Store on every mutation.
type Config struct {
	Enabled         bool
	Interval        time.Duration
	TargetPrice     decimal.Decimal
	TrackedVariants []VariantID
	AlertSink       string
}

// DefaultConfig returns the initial tracking state used when no persisted
// state exists yet.
func DefaultConfig() Config {
	return Config{
		Enabled:         false,
		Interval:        60 * time.Minute,
		TargetPrice:     decimal.NewFromFloat(299.0),
		TrackedVariants: []VariantID{Silver, Black, Gold},
	}
}

// ValidateTargetPrice checks the alert threshold bounds.
func ValidateTargetPrice(p decimal.Decimal) error {
	if p.LessThan(MinTargetPrice) || p.GreaterThan(MaxTargetPrice) {
		return ErrPriceOutOfRange
	}
	return nil
}

// ValidateInterval checks the sweep cadence bounds.
func ValidateInterval(d time.Duration) error {
	if d < MinInterval || d > MaxInterval {
		return ErrIntervalOutOfRange
	}
	return nil
}

// ValidateVariants checks that the set is non-empty and drawn from the known
// enumeration.
func ValidateVariants(vs []VariantID) error {
	if len(vs) == 0 {
		return ErrNoVariants
	}
	var invalid []VariantID
	for _, v := range vs {
		if !IsKnownVariant(v) {
			invalid = append(invalid, v)
		}
	}
	if len(invalid) > 0 {
		return &InvalidVariantsError{Invalid: invalid}
	}
	return nil
}

// Validate checks the whole config, used when restoring persisted state.
func (c Config) Validate() error {
	if err := ValidateTargetPrice(c.TargetPrice); err != nil {
		return err
	}
	if err := ValidateInterval(c.Interval); err != nil {
		return err
	}
	return ValidateVariants(c.TrackedVariants)
}
