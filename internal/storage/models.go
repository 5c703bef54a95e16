package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertRecord captures one dispatched alert for auditing. Alerts re-fire
// every sweep while a deal persists, so the audit trail is append-only with
// no uniqueness on the observation.
type AlertRecord struct {
	ID          int64
	ObservedAt  time.Time
	Source      string
	Variant     string
	Price       decimal.Decimal
	TargetPrice decimal.Decimal
	Sink        string
	FiredAt     time.Time
	CreatedAt   time.Time
}
