package app

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Simulate runs one refresh cycle with the named sources forced to fail and
// reports which values were substituted.
func (a *App) Simulate(ctx context.Context, fail []string) error {
	kinds, err := ParseKinds(fail)
	if err != nil {
		return err
	}
	if len(kinds) == 0 {
		return errors.New("至少需要通过 --fail 指定一个数据源")
	}

	agg, err := a.newAggregator(fail)
	if err != nil {
		return err
	}
	dash := agg.Refresh(ctx)

	if err := a.printDashboard(dash, time.Now(), false); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "\n%d of %d feeds fell back in %s\n",
		len(dash.Fallbacks), len(dash.Readings())+2, dash.Duration.Round(time.Millisecond))
	return nil
}
