package tracking

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTargetPrice(t *testing.T) {
	tests := []struct {
		name    string
		price   string
		wantErr bool
	}{
		{name: "lower bound inclusive", price: "100"},
		{name: "upper bound inclusive", price: "600"},
		{name: "typical", price: "299.99"},
		{name: "below bound", price: "99.99", wantErr: true},
		{name: "above bound", price: "600.01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, err := decimal.NewFromString(tt.price)
			require.NoError(t, err)

			err = ValidateTargetPrice(price)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPriceOutOfRange)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateInterval(t *testing.T) {
	assert.NoError(t, ValidateInterval(10*time.Minute))
	assert.NoError(t, ValidateInterval(24*time.Hour))
	assert.ErrorIs(t, ValidateInterval(9*time.Minute), ErrIntervalOutOfRange)
	assert.ErrorIs(t, ValidateInterval(25*time.Hour), ErrIntervalOutOfRange)
}

func TestValidateVariants(t *testing.T) {
	assert.NoError(t, ValidateVariants([]VariantID{Silver, Black}))
	assert.ErrorIs(t, ValidateVariants(nil), ErrNoVariants)

	err := ValidateVariants([]VariantID{Silver, "purple", "neon"})
	var invalid *InvalidVariantsError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, []VariantID{"purple", "neon"}, invalid.Invalid)
	assert.Contains(t, invalid.Error(), "purple")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, 60*time.Minute, cfg.Interval)
	assert.True(t, cfg.TargetPrice.Equal(decimal.NewFromFloat(299.0)))
	assert.Equal(t, []VariantID{Silver, Black, Gold}, cfg.TrackedVariants)
	assert.NoError(t, cfg.Validate())
}
