package aggregator

import (
	"time"

	"trumpwatch/internal/config"
	"trumpwatch/internal/market"
)

// Fallbacks holds the substitute for every metric. Debt and gas keep their
// delta against the term-start baseline; substituted prices carry no change.
type Fallbacks struct {
	readings map[market.Kind]market.Reading
	quote    market.Quote
	post     market.Post
}

// NewFallbacks builds fallback readings from configured constants.
func NewFallbacks(fb config.FallbacksConfig, base config.BaselinesConfig) Fallbacks {
	plain := func(kind market.Kind, v float64) market.Reading {
		return market.Reading{Kind: kind, Value: config.Decimal(v), ReferenceKind: market.ReferenceNone}
	}

	readings := map[market.Kind]market.Reading{
		market.KindDebt:            market.BaselineDelta(market.KindDebt, config.Decimal(fb.Debt), config.Decimal(base.Debt)),
		market.KindGas:             market.BaselineDelta(market.KindGas, config.Decimal(fb.Gas), config.Decimal(base.Gas)),
		market.KindSP500:           plain(market.KindSP500, fb.SP500),
		market.KindUnemployment:    plain(market.KindUnemployment, fb.Unemployment),
		market.KindInflation:       plain(market.KindInflation, fb.Inflation),
		market.KindBitcoin:         plain(market.KindBitcoin, fb.Bitcoin),
		market.KindGold:            plain(market.KindGold, fb.Gold),
		market.KindOil:             plain(market.KindOil, fb.Oil),
		market.KindExecutiveOrders: market.Count(market.KindExecutiveOrders, fb.ExecutiveOrders, time.Time{}),
	}
	return Fallbacks{
		readings: readings,
		quote: market.Quote{
			Text:       fb.Quote.Text,
			AppearedAt: fb.Quote.AppearedAt,
		},
		post: market.Post{
			ID:      "fallback",
			Content: fb.Post.Content,
			URL:     fb.Post.URL,
		},
	}
}

// Reading returns the fallback builder for kind.
func (f Fallbacks) Reading(kind market.Kind) FallbackFunc[market.Reading] {
	return func(reason string) market.Reading {
		r, ok := f.readings[kind]
		if !ok {
			r = market.Reading{Kind: kind, ReferenceKind: market.ReferenceNone}
		}
		return r.AsFallback(reason)
	}
}

// Quote returns the fallback quote.
func (f Fallbacks) Quote() market.Quote { return f.quote }

// Post returns the fallback post feed builder.
func (f Fallbacks) Post() FallbackFunc[market.PostFeed] {
	return func(reason string) market.PostFeed {
		return market.PostFeed{Post: f.post, Status: market.StatusFallback, Reason: reason}
	}
}
