package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"ringwatch/internal/catalog"
	"ringwatch/internal/tracking"
)

// Check performs one immediate sweep with the persisted tracking settings and
// prints the observations. It never dispatches alerts.
func (a *App) Check(ctx context.Context) error {
	state := tracking.NewFileStore(a.Config.Tracking.StatePath)
	cfg, err := state.Load()
	if err != nil {
		return err
	}

	targets := catalog.Default().ResolveTargets(cfg.TrackedVariants)
	if len(targets) == 0 {
		fmt.Fprintln(os.Stdout, "no targets resolved for tracked variants")
		return nil
	}

	a.Logger.Info().Int("targets", len(targets)).Msg("running manual check")
	observations := a.newRunner().Run(ctx, targets)
	if len(observations) == 0 {
		fmt.Fprintln(os.Stdout, "no prices observed")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tSource\tVariant\tPrice\tTarget\tDeal")

	for _, o := range observations {
		deal := ""
		if o.Price.LessThanOrEqual(cfg.TargetPrice) {
			deal = "yes"
		}
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\n",
			o.Timestamp.UTC().Format(time.RFC3339),
			o.Source,
			o.Variant,
			formatDecimal(o.Price, 2),
			formatDecimal(cfg.TargetPrice, 2),
			deal,
		)
	}

	writer.Flush()
	return nil
}
