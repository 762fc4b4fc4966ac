package market

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoData is returned when a source answered without a usable value.
	ErrNoData = errors.New("no usable data in response")
	// ErrZeroReference is returned when a percent change would divide by zero.
	ErrZeroReference = errors.New("reference value is zero")
)

var hundred = decimal.NewFromInt(100)

// yoyLag is the number of monthly periods between a value and its
// year-ago counterpart.
const yoyLag = 12

// BaselineDelta measures value against a fixed historical baseline.
// The percent is left at zero when the baseline is zero.
func BaselineDelta(kind Kind, value, baseline decimal.Decimal) Reading {
	change := value.Sub(baseline)
	r := Reading{
		Kind:          kind,
		Value:         value,
		Reference:     baseline,
		ReferenceKind: ReferenceBaseline,
		Change:        change,
		Status:        StatusLive,
	}
	if !baseline.IsZero() {
		r.ChangePercent = change.Div(baseline).Mul(hundred)
	}
	return r
}

// PeriodChange measures latest against the preceding observation:
// (latest - previous) / previous * 100.
func PeriodChange(kind Kind, latest, previous decimal.Decimal) (Reading, error) {
	pct, err := percentChange(latest, previous)
	if err != nil {
		return Reading{}, fmt.Errorf("%s period change: %w", kind, err)
	}
	return Reading{
		Kind:          kind,
		Value:         latest,
		Reference:     previous,
		ReferenceKind: ReferencePrevious,
		Change:        latest.Sub(previous),
		ChangePercent: pct,
		Status:        StatusLive,
	}, nil
}

// YearOverYear derives the inflation rate from monthly index observations
// ordered newest first with no gaps. obs[0] is compared with obs[12]. When a
// fourteenth observation is present the previous month's rate (obs[1] vs
// obs[13]) is computed as well.
func YearOverYear(obs []decimal.Decimal) (Reading, error) {
	if len(obs) < yoyLag+1 {
		return Reading{}, fmt.Errorf("inflation needs %d observations, got %d: %w", yoyLag+1, len(obs), ErrNoData)
	}

	var prev *IndexPair
	if len(obs) > yoyLag+1 {
		prev = &IndexPair{Latest: obs[1], YearAgo: obs[yoyLag+1]}
	}
	return Inflation(IndexPair{Latest: obs[0], YearAgo: obs[yoyLag]}, prev)
}

// IndexPair is an index value and the value of the same series twelve
// months earlier.
type IndexPair struct {
	Latest  decimal.Decimal
	YearAgo decimal.Decimal
}

// Inflation derives the year-over-year rate of cur. When prev (the pair one
// month earlier) is given its rate becomes the reference and Change holds
// the movement of the rate itself in percentage points.
func Inflation(cur IndexPair, prev *IndexPair) (Reading, error) {
	rate, err := percentChange(cur.Latest, cur.YearAgo)
	if err != nil {
		return Reading{}, fmt.Errorf("inflation rate: %w", err)
	}

	r := Reading{
		Kind:          KindInflation,
		Value:         rate,
		ReferenceKind: ReferenceNone,
		Status:        StatusLive,
	}

	if prev != nil {
		prevRate, err := percentChange(prev.Latest, prev.YearAgo)
		if err != nil {
			return Reading{}, fmt.Errorf("previous inflation rate: %w", err)
		}
		r.Reference = prevRate
		r.ReferenceKind = ReferencePrevious
		r.Change = rate.Sub(prevRate)
	}
	return r, nil
}

func percentChange(latest, previous decimal.Decimal) (decimal.Decimal, error) {
	if previous.IsZero() {
		return decimal.Zero, ErrZeroReference
	}
	return latest.Sub(previous).Div(previous).Mul(hundred), nil
}
