// Package countdown computes the time remaining in a fixed presidential term.
package countdown

import (
	"fmt"
	"math"
	"time"
)

const day = 24 * time.Hour

// DefaultTotalDays is the length of the default term. It is fixed rather than
// derived from the boundaries so the day counter never drifts with calendar
// arithmetic.
const DefaultTotalDays = 1461

var eastern = time.FixedZone("EST", -5*60*60)

// TermWindow is the immutable start/end pair being counted down.
type TermWindow struct {
	Start     time.Time
	End       time.Time
	TotalDays int
}

// DefaultTerm returns the compiled-in window: noon Eastern on 2025-01-20
// through noon Eastern on 2029-01-20.
func DefaultTerm() TermWindow {
	return TermWindow{
		Start:     time.Date(2025, time.January, 20, 12, 0, 0, 0, eastern),
		End:       time.Date(2029, time.January, 20, 12, 0, 0, 0, eastern),
		TotalDays: DefaultTotalDays,
	}
}

// Duration is the full length of the window.
func (w TermWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Validate reports a window that cannot be counted down.
func (w TermWindow) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return fmt.Errorf("term start and end are required")
	}
	if !w.End.After(w.Start) {
		return fmt.Errorf("term end %s must be after start %s", w.End.Format(time.RFC3339), w.Start.Format(time.RFC3339))
	}
	if w.TotalDays <= 0 {
		return fmt.Errorf("term total days must be greater than zero")
	}
	return nil
}

// Snapshot is computed at a given instant.
func (w TermWindow) Snapshot(now time.Time) Snapshot {
	return Compute(now, w)
}

// Remaining is a duration decomposed for display.
type Remaining struct {
	Days    int64 `json:"days"`
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
	Seconds int64 `json:"seconds"`
}

// TotalSeconds folds the decomposition back into seconds.
func (r Remaining) TotalSeconds() int64 {
	return r.Days*86400 + r.Hours*3600 + r.Minutes*60 + r.Seconds
}

// Snapshot is the derived countdown state at one instant.
type Snapshot struct {
	Remaining       Remaining `json:"remaining"`
	ElapsedDays     int       `json:"elapsed_days"`
	TotalDays       int       `json:"total_days"`
	PercentComplete float64   `json:"percent_complete"`
	Complete        bool      `json:"complete"`
}

// Day renders the 1-indexed day label, e.g. "Day 2 of 1,461".
func (s Snapshot) Day() string {
	return fmt.Sprintf("Day %s of %s", groupThousands(s.ElapsedDays), groupThousands(s.TotalDays))
}

// Compute derives the countdown snapshot for now within w.
//
// Once now reaches the end the snapshot is frozen at zero remaining, the full
// day count and 100 percent. Before the start the elapsed values are zero and
// the remaining value is the whole term.
func Compute(now time.Time, w TermWindow) Snapshot {
	total := w.Duration()

	if !now.Before(w.End) {
		return Snapshot{
			ElapsedDays:     w.TotalDays,
			TotalDays:       w.TotalDays,
			PercentComplete: 100,
			Complete:        true,
		}
	}

	if now.Before(w.Start) {
		return Snapshot{
			Remaining: decompose(total),
			TotalDays: w.TotalDays,
		}
	}

	passed := now.Sub(w.Start)
	elapsed := int(passed/day) + 1
	if elapsed > w.TotalDays {
		elapsed = w.TotalDays
	}

	percent := float64(passed) / float64(total) * 100
	percent = math.Max(0, math.Min(100, percent))

	return Snapshot{
		Remaining:       decompose(w.End.Sub(now)),
		ElapsedDays:     elapsed,
		TotalDays:       w.TotalDays,
		PercentComplete: percent,
	}
}

func decompose(d time.Duration) Remaining {
	if d < 0 {
		d = 0
	}
	return Remaining{
		Days:    int64(d / day),
		Hours:   int64((d % day) / time.Hour),
		Minutes: int64((d % time.Hour) / time.Minute),
		Seconds: int64((d % time.Minute) / time.Second),
	}
}

func groupThousands(n int) string {
	if n < 0 {
		return "-" + groupThousands(-n)
	}
	s := fmt.Sprintf("%d", n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}
