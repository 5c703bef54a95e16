package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"
)

// Show prints recent observations from the database.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show observations")
	}
	if closeStore != nil {
		defer closeStore()
	}

	observations, err := store.Recent(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(observations) == 0 {
		fmt.Fprintln(os.Stdout, "no observations found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tSource\tVariant\tPrice\tURL")

	for _, o := range observations {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\n",
			o.Timestamp.UTC().Format(time.RFC3339),
			o.Source,
			o.Variant,
			formatDecimal(o.Price, 2),
			o.TargetURL,
		)
	}

	writer.Flush()
	return nil
}
