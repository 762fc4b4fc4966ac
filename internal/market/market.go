// Package market holds the metric data model shared by fetchers, the
// aggregator and every view adapter.
package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies one tracked statistic.
type Kind string

const (
	KindDebt            Kind = "debt"
	KindGas             Kind = "gas"
	KindSP500           Kind = "sp500"
	KindUnemployment    Kind = "unemployment"
	KindInflation       Kind = "inflation"
	KindBitcoin         Kind = "bitcoin"
	KindGold            Kind = "gold"
	KindOil             Kind = "oil"
	KindExecutiveOrders Kind = "executive_orders"
	KindQuotes          Kind = "quotes"
	KindPost            Kind = "post"
)

// NumericKinds lists the numeric metrics in display order.
var NumericKinds = []Kind{
	KindDebt,
	KindGas,
	KindSP500,
	KindUnemployment,
	KindInflation,
	KindBitcoin,
	KindGold,
	KindOil,
	KindExecutiveOrders,
}

var labels = map[Kind]string{
	KindDebt:            "National Debt",
	KindGas:             "Gas Price",
	KindSP500:           "S&P 500",
	KindUnemployment:    "Unemployment",
	KindInflation:       "Inflation",
	KindBitcoin:         "Bitcoin",
	KindGold:            "Gold",
	KindOil:             "Oil (WTI)",
	KindExecutiveOrders: "Executive Orders",
	KindQuotes:          "Quotes",
	KindPost:            "Latest Post",
}

// Label is the human readable name of the metric.
func (k Kind) Label() string {
	if l, ok := labels[k]; ok {
		return l
	}
	return string(k)
}

// ParseKind resolves a metric identifier such as "gas".
func ParseKind(s string) (Kind, bool) {
	k := Kind(s)
	_, ok := labels[k]
	return k, ok
}

// Status tells whether a value came from its source or was substituted.
type Status string

const (
	StatusLive     Status = "live"
	StatusFallback Status = "fallback"
)

// ReferenceKind describes what a reading's change is measured against.
type ReferenceKind string

const (
	ReferenceNone     ReferenceKind = "none"
	ReferenceBaseline ReferenceKind = "baseline"
	ReferencePrevious ReferenceKind = "previous"
)

// Reading is one populated metric: the latest value, the reference it is
// compared against and the derived change. A fallback reading carries the
// reason the live fetch was abandoned.
type Reading struct {
	Kind          Kind            `json:"kind"`
	Value         decimal.Decimal `json:"value"`
	Reference     decimal.Decimal `json:"reference"`
	ReferenceKind ReferenceKind   `json:"reference_kind"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	AsOf          time.Time       `json:"as_of,omitempty"`
	Status        Status          `json:"status"`
	Reason        string          `json:"reason,omitempty"`
}

// OK reports a live reading.
func (r Reading) OK() bool { return r.Status == StatusLive }

// Fallback reports a substituted reading.
func (r Reading) Fallback() bool { return r.Status == StatusFallback }

// Sign is the sign of the derived change.
func (r Reading) Sign() int { return r.Change.Sign() }

// AsFallback marks the reading as substituted for reason.
func (r Reading) AsFallback(reason string) Reading {
	r.Status = StatusFallback
	r.Reason = reason
	return r
}

// Count builds a reading with no reference, used for plain tallies.
func Count(kind Kind, n int64, asOf time.Time) Reading {
	return Reading{
		Kind:          kind,
		Value:         decimal.NewFromInt(n),
		ReferenceKind: ReferenceNone,
		AsOf:          asOf,
		Status:        StatusLive,
	}
}
