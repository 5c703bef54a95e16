// Package scheduler owns the tracking state machine: run/stop state, the
// sweep cadence, live reconfiguration, and alert dispatch.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ringwatch/internal/alerting"
	"ringwatch/internal/catalog"
	"ringwatch/internal/history"
	"ringwatch/internal/storage"
	"ringwatch/internal/sweep"
	"ringwatch/internal/tracking"
)

var (
	// ErrAlreadyRunning signals a redundant Start.
	ErrAlreadyRunning = errors.New("price tracking is already running")
	// ErrAlreadyStopped signals a redundant Stop.
	ErrAlreadyStopped = errors.New("price tracking is not running")
)

// StartResult echoes the effective configuration back to the operator.
type StartResult struct {
	Interval        time.Duration
	TargetPrice     decimal.Decimal
	TrackedVariants []tracking.VariantID
}

// Status is a snapshot of the scheduler state.
type Status struct {
	Running         bool
	TargetPrice     decimal.Decimal
	Interval        time.Duration
	TrackedVariants []tracking.VariantID
	AlertSink       string
}

// Scheduler is the single logical tracking instance per process. All config
// mutations persist before they are acknowledged; sweeps are serialized so a
// scheduled firing never overlaps a manual check.
type Scheduler struct {
	catalog  *catalog.Catalog
	runner   *sweep.Runner
	history  history.Store
	alertLog storage.AlertLog
	notifier alerting.Notifier
	store    tracking.Store
	logger   zerolog.Logger

	mu      sync.Mutex
	cfg     tracking.Config
	running bool
	timer   *time.Timer
	gen     uint64

	// sweepMu serializes sweep execution across the timer path and CheckNow.
	sweepMu sync.Mutex
}

// New restores persisted tracking state and, if tracking was enabled when
// the process last stopped, resumes Running with a fresh interval from now.
// alertLog may be nil when alert auditing is not configured.
func New(cat *catalog.Catalog, runner *sweep.Runner, hist history.Store, alertLog storage.AlertLog, notifier alerting.Notifier, store tracking.Store, logger zerolog.Logger) (*Scheduler, error) {
	cfg, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load tracking state: %w", err)
	}

	s := &Scheduler{
		catalog:  cat,
		runner:   runner,
		history:  hist,
		alertLog: alertLog,
		notifier: notifier,
		store:    store,
		logger:   logger.With().Str("component", "scheduler").Logger(),
		cfg:      cfg,
	}

	if cfg.Enabled {
		s.mu.Lock()
		s.running = true
		s.armLocked()
		s.mu.Unlock()
		s.logger.Info().Dur("interval", cfg.Interval).Msg("tracking resumed from persisted state")
	}

	return s, nil
}

// Start enables tracking, records the alert sink, and schedules the first
// sweep one full interval from now.
func (s *Scheduler) Start(ctx context.Context, sink string) (StartResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return StartResult{}, ErrAlreadyRunning
	}

	next := s.cfg
	next.Enabled = true
	next.AlertSink = sink
	if err := s.store.Save(next); err != nil {
		return StartResult{}, fmt.Errorf("persist tracking state: %w", err)
	}

	s.cfg = next
	s.running = true
	s.armLocked()

	s.logger.Info().
		Dur("interval", next.Interval).
		Str("target_price", next.TargetPrice.StringFixed(2)).
		Str("sink", sink).
		Msg("tracking started")

	return StartResult{
		Interval:        next.Interval,
		TargetPrice:     next.TargetPrice,
		TrackedVariants: copyVariants(next.TrackedVariants),
	}, nil
}

// Stop disables tracking and cancels the pending sweep. A sweep already in
// flight completes and its observations still land in history, but no alert
// is dispatched for it and nothing further is scheduled.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return ErrAlreadyStopped
	}

	next := s.cfg
	next.Enabled = false
	if err := s.store.Save(next); err != nil {
		return fmt.Errorf("persist tracking state: %w", err)
	}

	s.cfg = next
	s.running = false
	s.disarmLocked()

	s.logger.Info().Msg("tracking stopped")
	return nil
}

// SetInterval changes the sweep cadence. While running, the pending sweep is
// rescheduled a full new interval from now; partially elapsed waiting time
// is discarded.
func (s *Scheduler) SetInterval(ctx context.Context, d time.Duration) error {
	if err := tracking.ValidateInterval(d); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cfg
	next.Interval = d
	if err := s.store.Save(next); err != nil {
		return fmt.Errorf("persist tracking state: %w", err)
	}

	s.cfg = next
	if s.running {
		s.disarmLocked()
		s.armLocked()
	}

	s.logger.Info().Dur("interval", d).Msg("check interval updated")
	return nil
}

// SetTargetPrice changes the alert threshold, effective from the next sweep.
func (s *Scheduler) SetTargetPrice(ctx context.Context, price decimal.Decimal) error {
	if err := tracking.ValidateTargetPrice(price); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cfg
	next.TargetPrice = price
	if err := s.store.Save(next); err != nil {
		return fmt.Errorf("persist tracking state: %w", err)
	}

	s.cfg = next
	s.logger.Info().Str("target_price", price.StringFixed(2)).Msg("target price updated")
	return nil
}

// SetVariants changes the tracked variant set, effective from the next sweep.
func (s *Scheduler) SetVariants(ctx context.Context, variants []tracking.VariantID) error {
	if err := tracking.ValidateVariants(variants); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cfg
	next.TrackedVariants = copyVariants(variants)
	if err := s.store.Save(next); err != nil {
		return fmt.Errorf("persist tracking state: %w", err)
	}

	s.cfg = next
	s.logger.Info().Interface("variants", variants).Msg("tracked variants updated")
	return nil
}

// CheckNow performs one immediate sweep with the current configuration. It
// does not touch the cadence timer and, unlike a scheduled sweep, reports
// deals to the caller without dispatching alerts.
func (s *Scheduler) CheckNow(ctx context.Context) ([]tracking.Observation, error) {
	s.mu.Lock()
	cfg := s.snapshotLocked()
	s.mu.Unlock()

	observations := s.executeSweep(ctx, cfg)

	deals := alerting.Evaluate(observations, cfg.TargetPrice)
	s.logger.Info().
		Int("observed", len(observations)).
		Int("deals", len(deals)).
		Msg("manual check complete")

	return observations, nil
}

// Status reports the current state and configuration.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Status{
		Running:         s.running,
		TargetPrice:     s.cfg.TargetPrice,
		Interval:        s.cfg.Interval,
		TrackedVariants: copyVariants(s.cfg.TrackedVariants),
		AlertSink:       s.cfg.AlertSink,
	}
}

// History returns the last n observations in chronological order.
func (s *Scheduler) History(ctx context.Context, n int) ([]tracking.Observation, error) {
	return s.history.Recent(ctx, n)
}

// Shutdown halts the cadence for process exit without flipping the
// persisted enabled flag, so a restart resumes tracking.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disarmLocked()
	s.running = false
}

func (s *Scheduler) armLocked() {
	s.gen++
	gen := s.gen
	s.timer = time.AfterFunc(s.cfg.Interval, func() { s.fire(gen) })
}

func (s *Scheduler) disarmLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

// fire runs one scheduled sweep. gen guards against firings that raced with
// Stop or SetInterval: stale generations neither sweep nor re-arm.
func (s *Scheduler) fire(gen uint64) {
	ctx := context.Background()

	s.mu.Lock()
	if !s.running || gen != s.gen {
		s.mu.Unlock()
		return
	}
	cfg := s.snapshotLocked()
	s.mu.Unlock()

	observations := s.executeSweep(ctx, cfg)

	s.mu.Lock()
	current := s.running && gen == s.gen
	if current {
		s.armLocked()
	}
	stillRunning := s.running
	sink := s.cfg.AlertSink
	s.mu.Unlock()

	if !stillRunning {
		s.logger.Info().Int("observed", len(observations)).Msg("sweep finished after stop; results kept, alerts suppressed")
		return
	}

	deals := alerting.Evaluate(observations, cfg.TargetPrice)
	s.logger.Info().
		Int("observed", len(observations)).
		Int("deals", len(deals)).
		Msg("scheduled sweep complete")

	for _, deal := range deals {
		event := alerting.Event{
			Observation: deal,
			TargetPrice: cfg.TargetPrice,
			FiredAt:     time.Now().UTC(),
		}
		if s.alertLog != nil {
			record := storage.AlertRecord{
				ObservedAt:  deal.Timestamp,
				Source:      string(deal.Source),
				Variant:     string(deal.Variant),
				Price:       deal.Price,
				TargetPrice: cfg.TargetPrice,
				Sink:        sink,
				FiredAt:     event.FiredAt,
			}
			if _, err := s.alertLog.RecordAlert(ctx, record); err != nil {
				s.logger.Error().Err(err).Msg("failed to record alert audit entry")
			}
		}
		if err := s.notifier.Notify(ctx, sink, event); err != nil {
			s.logger.Error().Err(err).
				Str("source", string(deal.Source)).
				Str("variant", string(deal.Variant)).
				Msg("failed to dispatch alert")
		}
	}
}

// executeSweep resolves targets and runs one serialized sweep. Zero resolved
// targets is a valid sweep that simply observes nothing.
func (s *Scheduler) executeSweep(ctx context.Context, cfg tracking.Config) []tracking.Observation {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	targets := s.catalog.ResolveTargets(cfg.TrackedVariants)
	observations := s.runner.Run(ctx, targets)

	if err := s.history.Append(ctx, observations); err != nil {
		s.logger.Error().Err(err).Int("count", len(observations)).Msg("failed to append observations to history")
	}
	return observations
}

func (s *Scheduler) snapshotLocked() tracking.Config {
	cfg := s.cfg
	cfg.TrackedVariants = copyVariants(cfg.TrackedVariants)
	return cfg
}

func copyVariants(vs []tracking.VariantID) []tracking.VariantID {
	out := make([]tracking.VariantID, len(vs))
	copy(out, vs)
	return out
}
