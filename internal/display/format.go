// Package display maps countdown snapshots and readings onto text and tone.
// It holds no state and performs no I/O; every view adapter renders through it.
package display

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"trumpwatch/internal/countdown"
)

var (
	trillion = decimal.NewFromInt(1_000_000_000_000)
	thousand = decimal.NewFromInt(1_000)
)

// Trillions renders "$36.2T".
func Trillions(v decimal.Decimal) string {
	return "$" + v.Div(trillion).StringFixed(1) + "T"
}

// SignedTrillions renders "+$1.2T" or "-$0.3T".
func SignedTrillions(v decimal.Decimal) string {
	return sign(v) + Trillions(v.Abs())
}

// USD renders "$3.08".
func USD(v decimal.Decimal) string {
	return "$" + v.StringFixed(2)
}

// SignedUSD renders "+$0.07" or "-$0.13".
func SignedUSD(v decimal.Decimal) string {
	return sign(v) + USD(v.Abs())
}

// Thousands renders "$98K".
func Thousands(v decimal.Decimal) string {
	return "$" + v.Div(thousand).StringFixed(0) + "K"
}

// SignedThousands renders "+$2K".
func SignedThousands(v decimal.Decimal) string {
	return sign(v) + Thousands(v.Abs())
}

// Integer renders a rounded value with thousands separators, e.g. "5,950".
func Integer(v decimal.Decimal) string {
	s := v.Round(0).Abs().StringFixed(0)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if v.Round(0).IsNegative() {
		return "-" + s
	}
	return s
}

// SignedInteger renders "+12" or "-1,024".
func SignedInteger(v decimal.Decimal) string {
	if v.Round(0).IsNegative() {
		return Integer(v)
	}
	return "+" + Integer(v)
}

// Dollars renders a whole-dollar amount, e.g. "$2,650".
func Dollars(v decimal.Decimal) string {
	return "$" + Integer(v)
}

// SignedDollars renders "+$310" or "-$100".
func SignedDollars(v decimal.Decimal) string {
	return sign(v) + Dollars(v.Abs())
}

// Percent renders v with the given decimals, e.g. "4.1%".
func Percent(v decimal.Decimal, places int32) string {
	return v.StringFixed(places) + "%"
}

// SignedPercent renders "+0.52%".
func SignedPercent(v decimal.Decimal) string {
	return sign(v) + Percent(v.Abs(), 2)
}

// Points renders a change in percentage points, e.g. "+0.3 pts".
func Points(v decimal.Decimal) string {
	return sign(v) + v.Abs().StringFixed(1) + " pts"
}

func sign(v decimal.Decimal) string {
	if v.IsNegative() {
		return "-"
	}
	return "+"
}

// Countdown renders the remaining time as "1460d 04h 05m 06s".
func Countdown(r countdown.Remaining) string {
	return fmt.Sprintf("%dd %02dh %02dm %02ds", r.Days, r.Hours, r.Minutes, r.Seconds)
}

// Progress renders the completed share of the term, e.g. "0.07%".
func Progress(s countdown.Snapshot) string {
	return fmt.Sprintf("%.2f%%", s.PercentComplete)
}

// Bar renders a fixed-width progress bar.
func Bar(percent float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(percent / 100 * float64(width))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
