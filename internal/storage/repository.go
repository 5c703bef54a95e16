package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"ringwatch/internal/history"
	"ringwatch/internal/tracking"
)

// ErrNotConfigured indicates the storage pool was not initialised.
var ErrNotConfigured = errors.New("storage: pool not configured")

const (
	insertObservationSQL = `INSERT INTO observations (
        observed_at,
        source,
        variant,
        price,
        target_url
    ) VALUES (
        $1,$2,$3,$4,$5
    );`

	listRecentObservationsSQL = `SELECT
        observed_at,
        source,
        variant,
        price,
        target_url
    FROM observations
    ORDER BY observed_at DESC, id DESC
    LIMIT $1;`

	listObservationsBetweenSQL = `SELECT
        observed_at,
        source,
        variant,
        price,
        target_url
    FROM observations
    WHERE observed_at >= $1 AND observed_at < $2
    ORDER BY observed_at ASC, id ASC;`

	countObservationsSQL = `SELECT COUNT(*) FROM observations;`

	insertAlertSQL = `INSERT INTO alerts (
        observed_at,
        source,
        variant,
        price,
        target_price,
        sink,
        fired_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7
    )
    RETURNING id, observed_at, source, variant, price, target_price, sink, fired_at, created_at;`

	listRecentAlertsSQL = `SELECT
        id,
        observed_at,
        source,
        variant,
        price,
        target_price,
        sink,
        fired_at,
        created_at
    FROM alerts
    ORDER BY created_at DESC
    LIMIT $1;`

	deleteObservationsBeforeSQL = `DELETE FROM observations WHERE observed_at < $1;`
)

// AlertLog defines operations for alert auditing.
type AlertLog interface {
	RecordAlert(ctx context.Context, record AlertRecord) (AlertRecord, error)
	ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error)
}

// Store persists observations and alert audit records in PostgreSQL. It
// implements history.Store.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	return pool.Ping(ctx)
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// Append persists a batch of observations.
func (s *Store) Append(ctx context.Context, observations []tracking.Observation) error {
	if len(observations) == 0 {
		return nil
	}
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, o := range observations {
		batch.Queue(insertObservationSQL,
			o.Timestamp,
			string(o.Source),
			string(o.Variant),
			o.Price.String(),
			o.TargetURL,
		)
	}

	results := pool.SendBatch(ctx, batch)
	defer results.Close()

	for range observations {
		if _, execErr := results.Exec(); execErr != nil {
			return fmt.Errorf("insert observation: %w", execErr)
		}
	}
	return nil
}

// Recent returns the last n observations in chronological order.
func (s *Store) Recent(ctx context.Context, n int) ([]tracking.Observation, error) {
	if n <= 0 {
		return []tracking.Observation{}, nil
	}
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentObservationsSQL, n)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent observations: %w", queryErr)
	}
	defer rows.Close()

	// n is caller-controlled; never use it as an allocation size.
	observations := make([]tracking.Observation, 0, boundedCap(n))
	for rows.Next() {
		var (
			o        tracking.Observation
			source   string
			variant  string
			priceStr string
		)
		if err := rows.Scan(&o.Timestamp, &source, &variant, &priceStr, &o.TargetURL); err != nil {
			return nil, err
		}
		price, convErr := decimal.NewFromString(priceStr)
		if convErr != nil {
			return nil, fmt.Errorf("parse observation price: %w", convErr)
		}
		o.Source = tracking.SourceID(source)
		o.Variant = tracking.VariantID(variant)
		o.Price = price
		observations = append(observations, o)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	// Query returns newest first; callers want chronological order.
	for i, j := 0, len(observations)-1; i < j; i, j = i+1, j-1 {
		observations[i], observations[j] = observations[j], observations[i]
	}
	return observations, nil
}

// ListObservationsBetween returns observations in [from, to) in chronological
// order.
func (s *Store) ListObservationsBetween(ctx context.Context, from, to time.Time) ([]tracking.Observation, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listObservationsBetweenSQL, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list observations between: %w", queryErr)
	}
	defer rows.Close()

	var observations []tracking.Observation
	for rows.Next() {
		var (
			o        tracking.Observation
			source   string
			variant  string
			priceStr string
		)
		if err := rows.Scan(&o.Timestamp, &source, &variant, &priceStr, &o.TargetURL); err != nil {
			return nil, err
		}
		price, convErr := decimal.NewFromString(priceStr)
		if convErr != nil {
			return nil, fmt.Errorf("parse observation price: %w", convErr)
		}
		o.Source = tracking.SourceID(source)
		o.Variant = tracking.VariantID(variant)
		o.Price = price
		observations = append(observations, o)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return observations, nil
}

// CountObservations counts stored observations.
func (s *Store) CountObservations(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countObservationsSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count observations: %w", scanErr)
	}
	return count, nil
}

// DeleteObservationsBefore trims history older than the cutoff. Retention is
// an operational concern; the scheduler itself never deletes.
func (s *Store) DeleteObservationsBefore(ctx context.Context, olderThan time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deleteObservationsBeforeSQL, olderThan); execErr != nil {
		return fmt.Errorf("delete observations before: %w", execErr)
	}
	return nil
}

// RecordAlert persists an alert emission.
func (s *Store) RecordAlert(ctx context.Context, record AlertRecord) (AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return AlertRecord{}, err
	}

	row := pool.QueryRow(ctx, insertAlertSQL,
		record.ObservedAt,
		record.Source,
		record.Variant,
		record.Price.String(),
		record.TargetPrice.String(),
		record.Sink,
		record.FiredAt,
	)

	rec, scanErr := scanAlertRecord(row)
	if scanErr != nil {
		return AlertRecord{}, fmt.Errorf("insert alert: %w", scanErr)
	}
	return rec, nil
}

// ListRecentAlerts lists the most recent alert emissions.
func (s *Store) ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentAlertsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent alerts: %w", queryErr)
	}
	defer rows.Close()

	alerts := make([]AlertRecord, 0, boundedCap(limit))
	for rows.Next() {
		rec, scanErr := scanAlertRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		alerts = append(alerts, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return alerts, nil
}

// boundedCap turns a requested row count into a safe slice capacity hint.
func boundedCap(n int) int {
	const max = 64
	if n < 0 {
		return 0
	}
	if n > max {
		return max
	}
	return n
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlertRecord(row rowScanner) (AlertRecord, error) {
	var (
		rec       AlertRecord
		priceStr  string
		targetStr string
	)
	if err := row.Scan(
		&rec.ID,
		&rec.ObservedAt,
		&rec.Source,
		&rec.Variant,
		&priceStr,
		&targetStr,
		&rec.Sink,
		&rec.FiredAt,
		&rec.CreatedAt,
	); err != nil {
		return AlertRecord{}, err
	}

	var convErr error
	rec.Price, convErr = decimal.NewFromString(priceStr)
	if convErr != nil {
		return AlertRecord{}, fmt.Errorf("parse alert price: %w", convErr)
	}
	rec.TargetPrice, convErr = decimal.NewFromString(targetStr)
	if convErr != nil {
		return AlertRecord{}, fmt.Errorf("parse alert target price: %w", convErr)
	}
	return rec, nil
}

var (
	_ history.Store = (*Store)(nil)
	_ AlertLog      = (*Store)(nil)
)
