package httpapi

import (
	"time"

	"trumpwatch/internal/aggregator"
	"trumpwatch/internal/countdown"
	"trumpwatch/internal/display"
	"trumpwatch/internal/market"
)

type countdownView struct {
	Start           time.Time           `json:"start"`
	End             time.Time           `json:"end"`
	Remaining       countdown.Remaining `json:"remaining"`
	ElapsedDays     int                 `json:"elapsed_days"`
	TotalDays       int                 `json:"total_days"`
	PercentComplete float64             `json:"percent_complete"`
	Complete        bool                `json:"complete"`
	Day             string              `json:"day"`
	Countdown       string              `json:"countdown"`
}

func newCountdownView(term countdown.TermWindow, now time.Time) countdownView {
	snap := term.Snapshot(now)
	return countdownView{
		Start:           term.Start,
		End:             term.End,
		Remaining:       snap.Remaining,
		ElapsedDays:     snap.ElapsedDays,
		TotalDays:       snap.TotalDays,
		PercentComplete: snap.PercentComplete,
		Complete:        snap.Complete,
		Day:             snap.Day(),
		Countdown:       display.Countdown(snap.Remaining),
	}
}

type metricView struct {
	Kind          market.Kind          `json:"kind"`
	Label         string               `json:"label"`
	Value         float64              `json:"value"`
	Reference     float64              `json:"reference"`
	ReferenceKind market.ReferenceKind `json:"reference_kind"`
	Change        float64              `json:"change"`
	ChangePercent float64              `json:"change_percent"`
	AsOf          time.Time            `json:"as_of"`
	Status        market.Status        `json:"status"`
	Reason        string               `json:"reason,omitempty"`
	Tone          display.Tone         `json:"tone"`
	Display       display.Card         `json:"display"`
}

type dashboardView struct {
	Countdown   countdownView    `json:"countdown"`
	Metrics     []metricView     `json:"metrics"`
	Quotes      market.QuoteFeed `json:"quotes"`
	Post        market.PostFeed  `json:"post"`
	RefreshedAt time.Time        `json:"refreshed_at"`
	Fallbacks   []market.Kind    `json:"fallbacks"`
	Warning     string           `json:"warning,omitempty"`
}

func newDashboardView(term countdown.TermWindow, now time.Time, dash aggregator.Dashboard) dashboardView {
	readings := dash.Readings()
	metrics := make([]metricView, 0, len(readings))
	for _, r := range readings {
		card := display.NewCard(r, term.Start)
		metrics = append(metrics, metricView{
			Kind:          r.Kind,
			Label:         card.Label,
			Value:         r.Value.InexactFloat64(),
			Reference:     r.Reference.InexactFloat64(),
			ReferenceKind: r.ReferenceKind,
			Change:        r.Change.InexactFloat64(),
			ChangePercent: r.ChangePercent.InexactFloat64(),
			AsOf:          r.AsOf,
			Status:        r.Status,
			Reason:        r.Reason,
			Tone:          card.Tone,
			Display:       card,
		})
	}

	fallbacks := dash.Fallbacks
	if fallbacks == nil {
		fallbacks = []market.Kind{}
	}

	return dashboardView{
		Countdown:   newCountdownView(term, now),
		Metrics:     metrics,
		Quotes:      dash.Quotes,
		Post:        dash.Post,
		RefreshedAt: dash.RefreshedAt,
		Fallbacks:   fallbacks,
		Warning:     dash.Warning,
	}
}
