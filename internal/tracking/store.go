package tracking

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
)

// Store persists the mutable tracking state so that a restart resumes the
// prior configuration exactly.
type Store interface {
	Load() (Config, error)
	Save(Config) error
}

// FileStore keeps the tracking state in a JSON file, matching the layout of
// the original bot's state file (interval stored in minutes).
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

type fileState struct {
	Enabled              bool        `json:"tracking_enabled"`
	CheckIntervalMinutes int         `json:"check_interval"`
	TargetPrice          string      `json:"target_price"`
	TrackedVariants      []VariantID `json:"tracked_variants"`
	AlertSink            string      `json:"alert_sink,omitempty"`
}

// Load reads the persisted state. A missing file yields the defaults, which
// are written back immediately so later saves never race with first use.
func (s *FileStore) Load() (Config, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg := DefaultConfig()
		if saveErr := s.Save(cfg); saveErr != nil {
			return Config{}, saveErr
		}
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read tracking state: %w", err)
	}

	var state fileState
	if err := json.Unmarshal(raw, &state); err != nil {
		return Config{}, fmt.Errorf("decode tracking state: %w", err)
	}

	price, err := decimal.NewFromString(state.TargetPrice)
	if err != nil {
		return Config{}, fmt.Errorf("parse persisted target price: %w", err)
	}

	cfg := Config{
		Enabled:         state.Enabled,
		Interval:        time.Duration(state.CheckIntervalMinutes) * time.Minute,
		TargetPrice:     price,
		TrackedVariants: state.TrackedVariants,
		AlertSink:       state.AlertSink,
	}

	// The file is hand-editable; a value that parses but breaks the bounds
	// must never reach the scheduler, which trusts loaded state enough to
	// arm its timer with it.
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid tracking state in %s: %w", s.path, err)
	}
	return cfg, nil
}

// Save writes the state atomically (temp file + rename).
func (s *FileStore) Save(cfg Config) error {
	state := fileState{
		Enabled:              cfg.Enabled,
		CheckIntervalMinutes: int(cfg.Interval / time.Minute),
		TargetPrice:          cfg.TargetPrice.String(),
		TrackedVariants:      cfg.TrackedVariants,
		AlertSink:            cfg.AlertSink,
	}

	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tracking state: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".tracking-state-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write tracking state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace tracking state: %w", err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
