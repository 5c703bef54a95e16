package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// PruneOptions configure the retention cutoff.
type PruneOptions struct {
	OlderThan time.Duration
}

// Prune deletes observations older than the cutoff. Retention is operator
// driven; nothing in the service deletes history on its own.
func (a *App) Prune(ctx context.Context, opts PruneOptions) error {
	if opts.OlderThan <= 0 {
		return errors.New("--older-than must be a positive duration")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; nothing to prune")
	}
	if closeStore != nil {
		defer closeStore()
	}

	before, err := store.CountObservations(ctx)
	if err != nil {
		return err
	}

	cutoff := time.Now().UTC().Add(-opts.OlderThan)
	if err := store.DeleteObservationsBefore(ctx, cutoff); err != nil {
		return err
	}

	after, err := store.CountObservations(ctx)
	if err != nil {
		return err
	}

	a.Logger.Info().
		Time("cutoff", cutoff).
		Int64("deleted", before-after).
		Int64("remaining", after).
		Msg("observations pruned")
	fmt.Fprintf(os.Stdout, "deleted %d observations older than %s (%d remaining)\n", before-after, cutoff.Format(time.RFC3339), after)
	return nil
}
