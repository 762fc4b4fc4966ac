package aggregator

import (
	"strings"
	"time"

	"trumpwatch/internal/market"
)

// FeedWarning is shown whenever a refresh had to substitute any value.
const FeedWarning = "Failed to load some data feeds. Please check your connection."

// Dashboard is the result of one refresh cycle. Every metric is populated,
// either live or with its fallback.
type Dashboard struct {
	Debt            market.Reading   `json:"debt"`
	Gas             market.Reading   `json:"gas"`
	SP500           market.Reading   `json:"sp500"`
	Unemployment    market.Reading   `json:"unemployment"`
	Inflation       market.Reading   `json:"inflation"`
	Bitcoin         market.Reading   `json:"bitcoin"`
	Gold            market.Reading   `json:"gold"`
	Oil             market.Reading   `json:"oil"`
	ExecutiveOrders market.Reading   `json:"executive_orders"`
	Quotes          market.QuoteFeed `json:"quotes"`
	Post            market.PostFeed  `json:"post"`

	RefreshedAt time.Time     `json:"refreshed_at"`
	Duration    time.Duration `json:"duration"`
	Fallbacks   []market.Kind `json:"fallbacks"`
	Warning     string        `json:"warning,omitempty"`
}

func (d *Dashboard) slot(kind market.Kind) *market.Reading {
	switch kind {
	case market.KindDebt:
		return &d.Debt
	case market.KindGas:
		return &d.Gas
	case market.KindSP500:
		return &d.SP500
	case market.KindUnemployment:
		return &d.Unemployment
	case market.KindInflation:
		return &d.Inflation
	case market.KindBitcoin:
		return &d.Bitcoin
	case market.KindGold:
		return &d.Gold
	case market.KindOil:
		return &d.Oil
	case market.KindExecutiveOrders:
		return &d.ExecutiveOrders
	}
	return nil
}

// Reading returns the numeric metric for kind.
func (d Dashboard) Reading(kind market.Kind) (market.Reading, bool) {
	s := d.slot(kind)
	if s == nil {
		return market.Reading{}, false
	}
	return *s, true
}

// Readings lists the numeric metrics in display order.
func (d Dashboard) Readings() []market.Reading {
	out := make([]market.Reading, 0, len(market.NumericKinds))
	for _, kind := range market.NumericKinds {
		out = append(out, *d.slot(kind))
	}
	return out
}

// Degraded reports whether any source fell back.
func (d Dashboard) Degraded() bool {
	return len(d.Fallbacks) > 0
}

// FellBack reports whether kind was substituted.
func (d Dashboard) FellBack(kind market.Kind) bool {
	for _, k := range d.Fallbacks {
		if k == kind {
			return true
		}
	}
	return false
}

func (d *Dashboard) collectFallbacks() {
	d.Fallbacks = d.Fallbacks[:0]
	for _, kind := range market.NumericKinds {
		if d.slot(kind).Fallback() {
			d.Fallbacks = append(d.Fallbacks, kind)
		}
	}
	if d.Quotes.Fallback() {
		d.Fallbacks = append(d.Fallbacks, market.KindQuotes)
	}
	if d.Post.Fallback() {
		d.Fallbacks = append(d.Fallbacks, market.KindPost)
	}
	if len(d.Fallbacks) > 0 {
		d.Warning = FeedWarning
	}
}

func kindNames(kinds []market.Kind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ",")
}
