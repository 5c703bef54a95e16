package tracking

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceID identifies a retailer in the source catalog.
type SourceID string

// VariantID identifies a product variant (ring color).
type VariantID string

// Known ring variants. Catalog entries and operator commands must use these.
const (
	Silver   VariantID = "silver"
	Black    VariantID = "black"
	Gold     VariantID = "gold"
	RoseGold VariantID = "rose_gold"
	Stealth  VariantID = "stealth"
)

// KnownVariants lists valid variants in canonical order.
var KnownVariants = []VariantID{Silver, Black, Gold, RoseGold, Stealth}

// IsKnownVariant reports whether v belongs to the known enumeration.
func IsKnownVariant(v VariantID) bool {
	for _, known := range KnownVariants {
		if v == known {
			return true
		}
	}
	return false
}

// Observation is a single successfully parsed price reading for one
// source/variant at one point in time.
type Observation struct {
	Timestamp time.Time       `json:"timestamp"`
	Source    SourceID        `json:"source"`
	Variant   VariantID       `json:"variant"`
	Price     decimal.Decimal `json:"price"`
	TargetURL string          `json:"target_url"`
}
