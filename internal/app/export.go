package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	chart "github.com/wcharczuk/go-chart/v2"

	"ringwatch/internal/tracking"
)

// defaultExportWindow bounds the export when --from is omitted.
const defaultExportWindow = 30 * 24 * time.Hour

// Export renders historical observations as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot export")
	}
	if closeStore != nil {
		defer closeStore()
	}

	to := time.Now().UTC()
	if opts.To != nil {
		to = opts.To.UTC()
	}

	from := to.Add(-defaultExportWindow)
	if opts.From != nil {
		from = opts.From.UTC()
	}

	if !from.Before(to) {
		return errors.New("from must be before to")
	}

	observations, err := store.ListObservationsBetween(ctx, from, to)
	if err != nil {
		return err
	}
	if len(observations) == 0 {
		a.Logger.Info().Msg("no observations found for export window")
		return nil
	}

	downsampled := downsampleObservations(observations, opts.MaxPoints)
	a.Logger.Info().Int("total", len(observations)).Int("exported", len(downsampled)).Msg("exporting observations")

	if opts.CSVPath != "" {
		if err := writeObservationsCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeObservationsPNG(opts.PNGPath, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func downsampleObservations(observations []tracking.Observation, max int) []tracking.Observation {
	if max <= 0 || len(observations) <= max {
		return observations
	}

	result := make([]tracking.Observation, 0, max)
	step := float64(len(observations)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(observations) {
			idx = len(observations) - 1
		}
		result = append(result, observations[idx])
	}
	return result
}

func writeObservationsCSV(path string, observations []tracking.Observation) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"observed_at", "source", "variant", "price", "target_url"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, o := range observations {
		record := []string{
			o.Timestamp.UTC().Format(time.RFC3339),
			string(o.Source),
			string(o.Variant),
			o.Price.String(),
			o.TargetURL,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

// writeObservationsPNG plots one price series per source and variant pair.
func writeObservationsPNG(path string, observations []tracking.Observation) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	type point struct {
		ts    time.Time
		price float64
	}
	groups := make(map[string][]point)
	for _, o := range observations {
		key := fmt.Sprintf("%s/%s", o.Source, o.Variant)
		groups[key] = append(groups[key], point{ts: o.Timestamp, price: o.Price.InexactFloat64()})
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	series := make([]chart.Series, 0, len(keys))
	for _, key := range keys {
		points := groups[key]
		x := make([]time.Time, len(points))
		y := make([]float64, len(points))
		for i, p := range points {
			x[i] = p.ts
			y[i] = p.price
		}
		series = append(series, chart.TimeSeries{
			Name:    key,
			XValues: x,
			YValues: y,
		})
	}

	priceFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "$%.2f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Price (USD)",
			ValueFormatter: priceFormatter,
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func formatDecimal(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}
