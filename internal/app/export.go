package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"image"
	"image/draw"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"trumpwatch/internal/aggregator"
	"trumpwatch/internal/countdown"
	"trumpwatch/internal/display"
	"trumpwatch/internal/market"
)

var toneColors = map[display.Tone]drawing.Color{
	display.ToneGood:    drawing.ColorFromHex("2e7d32"),
	display.ToneBad:     drawing.ColorFromHex("c62828"),
	display.ToneAccent:  drawing.ColorFromHex("f9a825"),
	display.ToneNeutral: drawing.ColorFromHex("607d8b"),
}

// Export runs one refresh cycle and renders it as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	agg, err := a.newAggregator(nil)
	if err != nil {
		return err
	}
	dash := agg.Refresh(ctx)
	snap := a.Config.Term.Window().Snapshot(time.Now())

	if opts.CSVPath != "" {
		if err := writeDashboardCSV(opts.CSVPath, dash); err != nil {
			return err
		}
		a.Logger.Info().Str("path", opts.CSVPath).Msg("csv exported")
	}

	if opts.PNGPath != "" {
		if err := a.writeWidgetPNG(opts.PNGPath, snap, dash); err != nil {
			return err
		}
		a.Logger.Info().Str("path", opts.PNGPath).Msg("widget image exported")
	}

	return nil
}

func writeDashboardCSV(path string, dash aggregator.Dashboard) error {
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

	header := []string{"kind", "value", "reference", "reference_kind", "change", "change_pct", "as_of", "status", "reason"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, r := range dash.Readings() {
		asOf := ""
		if !r.AsOf.IsZero() {
			asOf = r.AsOf.Format(time.RFC3339)
		}
		record := []string{
			string(r.Kind),
			r.Value.String(),
			r.Reference.String(),
			string(r.ReferenceKind),
			r.Change.String(),
			r.ChangePercent.StringFixed(4),
			asOf,
			string(r.Status),
			r.Reason,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// writeWidgetPNG renders the term-progress donut and the change bars side by
// side into one image.
func (a *App) writeWidgetPNG(path string, snap countdown.Snapshot, dash aggregator.Dashboard) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	width, height := a.Config.Export.Width, a.Config.Export.Height
	half := width / 2

	donut, err := renderChart(progressChart(snap, half, height))
	if err != nil {
		return err
	}
	bars, err := renderChart(changeChart(dash, a.Config.Term.Start, width-half, height))
	if err != nil {
		return err
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(0, 0, half, height), donut, image.Point{}, draw.Over)
	draw.Draw(canvas, image.Rect(half, 0, width, height), bars, image.Point{}, draw.Over)

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, canvas)
}

type renderable interface {
	Render(rp chart.RendererProvider, w io.Writer) error
}

func renderChart(c renderable) (image.Image, error) {
	var buf bytes.Buffer
	if err := c.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return png.Decode(&buf)
}

func progressChart(snap countdown.Snapshot, width, height int) *chart.DonutChart {
	elapsed := math.Max(snap.PercentComplete, 0.01)
	remaining := math.Max(100-snap.PercentComplete, 0.01)

	return &chart.DonutChart{
		Title:  snap.Day(),
		Width:  width,
		Height: height,
		Values: []chart.Value{
			{Value: elapsed, Label: display.Progress(snap) + " done", Style: chart.Style{FillColor: toneColors[display.ToneBad]}},
			{Value: remaining, Label: "remaining", Style: chart.Style{FillColor: drawing.ColorFromHex("e0e0e0")}},
		},
	}
}

func changeChart(dash aggregator.Dashboard, since time.Time, width, height int) *chart.BarChart {
	bars := make([]chart.Value, 0, len(market.NumericKinds))
	lo, hi := 0.0, 0.0
	for _, r := range dash.Readings() {
		if r.Kind == market.KindExecutiveOrders {
			continue
		}
		pct := r.ChangePercent.InexactFloat64()
		lo, hi = math.Min(lo, pct), math.Max(hi, pct)
		color := toneColors[display.NewCard(r, since).Tone]
		bars = append(bars, chart.Value{
			Value: pct,
			Label: string(r.Kind),
			Style: chart.Style{FillColor: color, StrokeColor: color},
		})
	}
	pad := math.Max((hi-lo)*0.1, 1)

	return &chart.BarChart{
		Title:        "Change %",
		Width:        width,
		Height:       height,
		BarWidth:     width / (2 * len(bars)),
		UseBaseValue: true,
		BaseValue:    0,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: lo - pad, Max: hi + pad},
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.1f%%")
			},
		},
		Bars: bars,
	}
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
