package display

import (
	"time"

	"github.com/shopspring/decimal"

	"trumpwatch/internal/market"
)

// Tone is the colour class a value is rendered with.
type Tone string

const (
	ToneGood    Tone = "good"
	ToneBad     Tone = "bad"
	ToneNeutral Tone = "neutral"
	ToneAccent  Tone = "accent"
)

// InflationAlert is the rate above which inflation is shown as bad.
var InflationAlert = decimal.NewFromInt(3)

// ToneOf applies the per-metric colour policy. Debt growth is always bad;
// index and oil declines are bad; a gas price above the baseline is bad.
func ToneOf(r market.Reading) Tone {
	switch r.Kind {
	case market.KindDebt:
		return ToneBad
	case market.KindSP500, market.KindOil:
		if r.ChangePercent.IsNegative() {
			return ToneBad
		}
		return ToneGood
	case market.KindGas:
		if r.Change.IsPositive() {
			return ToneBad
		}
		return ToneGood
	case market.KindBitcoin, market.KindGold:
		return ToneAccent
	case market.KindInflation:
		if r.Value.GreaterThan(InflationAlert) {
			return ToneBad
		}
		return ToneNeutral
	default:
		return ToneNeutral
	}
}

// Card is a rendered metric ready for any view.
type Card struct {
	Kind     market.Kind `json:"kind"`
	Label    string      `json:"label"`
	Value    string      `json:"value"`
	Sub      string      `json:"sub"`
	Tone     Tone        `json:"tone"`
	Fallback bool        `json:"fallback"`
}

// NewCard formats r. since is the term start, used for cumulative changes.
func NewCard(r market.Reading, since time.Time) Card {
	c := Card{
		Kind:     r.Kind,
		Label:    r.Kind.Label(),
		Tone:     ToneOf(r),
		Fallback: r.Fallback(),
	}
	sinceLabel := "since " + since.Format("Jan 2")

	switch r.Kind {
	case market.KindDebt:
		c.Value = Trillions(r.Value)
		c.Sub = SignedTrillions(r.Change) + " " + sinceLabel
	case market.KindGas:
		c.Value = USD(r.Value)
		c.Sub = SignedUSD(r.Change) + " " + sinceLabel
	case market.KindSP500:
		c.Value = Integer(r.Value)
		c.Sub = SignedPercent(r.ChangePercent)
	case market.KindOil:
		c.Value = USD(r.Value)
		c.Sub = SignedPercent(r.ChangePercent)
	case market.KindUnemployment:
		c.Value = Percent(r.Value, 1)
		if r.ReferenceKind == market.ReferencePrevious {
			c.Sub = Points(r.Change) + " vs prior"
		}
	case market.KindInflation:
		c.Value = Percent(r.Value, 1) + " YoY"
		if r.ReferenceKind == market.ReferencePrevious {
			c.Sub = Points(r.Change) + " vs prior month"
		}
	case market.KindBitcoin:
		c.Value = Thousands(r.Value)
		c.Sub = SignedPercent(r.ChangePercent) + " 24h"
	case market.KindGold:
		c.Value = Dollars(r.Value)
		c.Sub = SignedDollars(r.Change) + " " + sinceLabel
	case market.KindExecutiveOrders:
		c.Value = Integer(r.Value)
		c.Sub = "signed " + sinceLabel
	default:
		c.Value = r.Value.String()
	}
	if c.Fallback {
		if c.Sub != "" {
			c.Sub += " "
		}
		c.Sub += "(offline)"
	}
	return c
}

// Cards formats every reading in order.
func Cards(readings []market.Reading, since time.Time) []Card {
	out := make([]Card, 0, len(readings))
	for _, r := range readings {
		out = append(out, NewCard(r, since))
	}
	return out
}
