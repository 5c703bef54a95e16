package tracking

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreLoadMissingWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := NewFileStore(path)

	cfg, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Interval, cfg.Interval)
	assert.True(t, cfg.TargetPrice.Equal(DefaultConfig().TargetPrice))

	// Defaults must have been persisted on first load.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var state map[string]any
	require.NoError(t, json.Unmarshal(raw, &state))
	assert.Equal(t, float64(60), state["check_interval"])
	assert.Equal(t, "299", state["target_price"])
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := NewFileStore(path)

	saved := Config{
		Enabled:         true,
		Interval:        30 * time.Minute,
		TargetPrice:     decimal.NewFromFloat(249.50),
		TrackedVariants: []VariantID{Silver, RoseGold},
		AlertSink:       "deals-channel",
	}
	require.NoError(t, store.Save(saved))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, saved.Enabled, loaded.Enabled)
	assert.Equal(t, saved.Interval, loaded.Interval)
	assert.True(t, loaded.TargetPrice.Equal(saved.TargetPrice))
	assert.Equal(t, saved.TrackedVariants, loaded.TrackedVariants)
	assert.Equal(t, saved.AlertSink, loaded.AlertSink)
}

func TestFileStoreLoadRejectsOutOfBoundsState(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "zero interval",
			content: `{"tracking_enabled": true, "check_interval": 0, "target_price": "299", "tracked_variants": ["silver"]}`,
		},
		{
			name:    "interval above maximum",
			content: `{"tracking_enabled": false, "check_interval": 2880, "target_price": "299", "tracked_variants": ["silver"]}`,
		},
		{
			name:    "target price below minimum",
			content: `{"tracking_enabled": false, "check_interval": 60, "target_price": "50", "tracked_variants": ["silver"]}`,
		},
		{
			name:    "empty variant set",
			content: `{"tracking_enabled": false, "check_interval": 60, "target_price": "299", "tracked_variants": []}`,
		},
		{
			name:    "unknown variant",
			content: `{"tracking_enabled": false, "check_interval": 60, "target_price": "299", "tracked_variants": ["copper"]}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "state.json")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))

			_, err := NewFileStore(path).Load()
			assert.Error(t, err)
		})
	}
}

func TestFileStoreLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	if _, err := NewFileStore(path).Load(); err == nil {
		t.Fatal("corrupt state file should return an error")
	}
}
