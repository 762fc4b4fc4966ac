package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"trumpwatch/internal/aggregator"
	"trumpwatch/internal/countdown"
	"trumpwatch/internal/display"
)

// Show runs one refresh cycle and prints it.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	agg, err := a.newAggregator(nil)
	if err != nil {
		return err
	}
	dash := agg.Refresh(ctx)
	return a.printDashboard(dash, time.Now(), opts.JSON)
}

// Countdown prints the countdown at the given instant. It never touches the
// network.
func (a *App) Countdown(at time.Time) error {
	if at.IsZero() {
		at = time.Now()
	}
	writeCountdown(a.Out, a.Config.Term.Window().Snapshot(at))
	return nil
}

func (a *App) printDashboard(dash aggregator.Dashboard, now time.Time, asJSON bool) error {
	term := a.Config.Term.Window()
	snap := term.Snapshot(now)

	if asJSON {
		enc := json.NewEncoder(a.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Countdown countdown.Snapshot   `json:"countdown"`
			Dashboard aggregator.Dashboard `json:"dashboard"`
		}{snap, dash})
	}

	writeCountdown(a.Out, snap)
	fmt.Fprintln(a.Out)

	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Metric\tValue\tChange\tStatus\tReason")
	for _, r := range dash.Readings() {
		card := display.NewCard(r, term.Start)
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n",
			card.Label,
			card.Value,
			card.Sub,
			r.Status,
			sanitizeInline(r.Reason),
		)
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	for _, q := range dash.Quotes.Quotes {
		fmt.Fprintf(a.Out, "\n%q", q.Text)
		if !q.AppearedAt.IsZero() {
			fmt.Fprintf(a.Out, " (%s)", q.AppearedAt.Format("Jan 2, 2006"))
		}
	}
	if len(dash.Quotes.Quotes) > 0 {
		fmt.Fprintln(a.Out)
	}
	if post := dash.Post.Post; post.Content != "" {
		fmt.Fprintf(a.Out, "\nLatest post: %s\n", sanitizeInline(post.Content))
	}
	if dash.Warning != "" {
		fmt.Fprintf(a.Out, "\n%s\n", dash.Warning)
	}
	return nil
}

func writeCountdown(w io.Writer, snap countdown.Snapshot) {
	fmt.Fprintf(w, "%s (%s complete)\n", snap.Day(), display.Progress(snap))
	if snap.Complete {
		fmt.Fprintln(w, "The term is over.")
	} else {
		fmt.Fprintf(w, "%s remaining\n", display.Countdown(snap.Remaining))
	}
	fmt.Fprintln(w, display.Bar(snap.PercentComplete, 40))
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
