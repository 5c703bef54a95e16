package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"
)

// AlertsOptions configure the alerts command.
type AlertsOptions struct {
	Limit int
}

// Alerts prints the most recent alert emissions from the audit log.
func (a *App) Alerts(ctx context.Context, opts AlertsOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show alerts")
	}
	if closeStore != nil {
		defer closeStore()
	}

	alerts, err := store.ListRecentAlerts(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		fmt.Fprintln(os.Stdout, "no alerts recorded")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Fired (UTC)\tSource\tVariant\tPrice\tTarget\tSink")

	for _, alert := range alerts {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\n",
			alert.FiredAt.UTC().Format(time.RFC3339),
			alert.Source,
			alert.Variant,
			formatDecimal(alert.Price, 2),
			formatDecimal(alert.TargetPrice, 2),
			alert.Sink,
		)
	}

	writer.Flush()
	return nil
}
