// Package aggregator runs every data source concurrently and joins the
// results into one Dashboard, substituting fallbacks for failed sources.
package aggregator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"trumpwatch/internal/fetcher"
	"trumpwatch/internal/market"
)

// Sources are the live fetchers. Any nil entry resolves to its fallback.
type Sources struct {
	Metrics []fetcher.MetricFetcher
	Quotes  fetcher.QuoteFetcher
	Posts   fetcher.PostFetcher
}

// Options tune a refresh cycle.
type Options struct {
	// Timeout bounds each source independently.
	Timeout    time.Duration
	QuoteCount int
	// Disabled kinds skip the network and resolve to their fallback.
	Disabled []market.Kind
}

// Aggregator fans out one refresh cycle across all sources.
type Aggregator struct {
	metrics   map[market.Kind]fetcher.MetricFetcher
	quotes    fetcher.QuoteFetcher
	posts     fetcher.PostFetcher
	fallbacks Fallbacks
	opts      Options
	disabled  map[market.Kind]bool
	logger    zerolog.Logger
	now       func() time.Time
}

// New constructs an aggregator.
func New(sources Sources, fallbacks Fallbacks, opts Options, logger zerolog.Logger) *Aggregator {
	metrics := make(map[market.Kind]fetcher.MetricFetcher, len(sources.Metrics))
	for _, f := range sources.Metrics {
		if f != nil {
			metrics[f.Kind()] = f
		}
	}

	disabled := make(map[market.Kind]bool, len(opts.Disabled))
	for _, k := range opts.Disabled {
		disabled[k] = true
	}

	return &Aggregator{
		metrics:   metrics,
		quotes:    sources.Quotes,
		posts:     sources.Posts,
		fallbacks: fallbacks,
		opts:      opts,
		disabled:  disabled,
		logger:    logger.With().Str("component", "aggregator").Logger(),
		now:       time.Now,
	}
}

// Refresh runs every source concurrently and returns once all of them have
// resolved. It never fails; the cycle takes as long as the slowest source,
// which is bounded by Options.Timeout.
func (a *Aggregator) Refresh(ctx context.Context) Dashboard {
	start := a.now()
	var d Dashboard

	// Branches never return an error; each owns a distinct slot of d.
	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range market.NumericKinds {
		slot := d.slot(kind)
		fetch := a.metricFetch(kind)
		fallback := a.fallbacks.Reading(kind)
		g.Go(func() error {
			*slot = Resolve(gctx, string(kind), a.opts.Timeout, fetch, fallback, a.logger)
			return nil
		})
	}
	g.Go(func() error {
		d.Quotes = a.resolveQuotes(gctx)
		return nil
	})
	g.Go(func() error {
		d.Post = Resolve(gctx, string(market.KindPost), a.opts.Timeout, a.postFetch(), a.fallbacks.Post(), a.logger)
		return nil
	})
	_ = g.Wait()

	d.RefreshedAt = a.now().UTC()
	d.Duration = a.now().Sub(start)
	d.collectFallbacks()

	event := a.logger.Info()
	if d.Degraded() {
		event = a.logger.Warn().Str("fallbacks", kindNames(d.Fallbacks))
	}
	event.Dur("took", d.Duration).Int("fallback_count", len(d.Fallbacks)).Msg("refresh complete")

	return d
}

func (a *Aggregator) metricFetch(kind market.Kind) FetchFunc[market.Reading] {
	if a.disabled[kind] {
		return failing[market.Reading](errDisabled)
	}
	f, ok := a.metrics[kind]
	if !ok {
		return nil
	}
	return f.Fetch
}

func (a *Aggregator) postFetch() FetchFunc[market.PostFeed] {
	if a.disabled[market.KindPost] {
		return failing[market.PostFeed](errDisabled)
	}
	if a.posts == nil {
		return nil
	}
	return func(ctx context.Context) (market.PostFeed, error) {
		post, err := a.posts.FetchLatestPost(ctx)
		if err != nil {
			return market.PostFeed{}, err
		}
		return market.PostFeed{Post: post, Status: market.StatusLive}, nil
	}
}

type quoteResult struct {
	quote  market.Quote
	reason string
}

// resolveQuotes fetches QuoteCount quotes concurrently, each with its own
// fallback.
func (a *Aggregator) resolveQuotes(ctx context.Context) market.QuoteFeed {
	n := a.opts.QuoteCount
	if n <= 0 {
		return market.QuoteFeed{Status: market.StatusLive}
	}

	var fetch FetchFunc[quoteResult]
	switch {
	case a.disabled[market.KindQuotes]:
		fetch = failing[quoteResult](errDisabled)
	case a.quotes != nil:
		fetch = func(ctx context.Context) (quoteResult, error) {
			q, err := a.quotes.FetchQuote(ctx)
			return quoteResult{quote: q}, err
		}
	}
	fallback := func(reason string) quoteResult {
		return quoteResult{quote: a.fallbacks.Quote(), reason: reason}
	}

	results := make([]quoteResult, n)
	g, gctx := errgroup.WithContext(ctx)
	for i := range results {
		g.Go(func() error {
			results[i] = Resolve(gctx, fmt.Sprintf("%s[%d]", market.KindQuotes, i), a.opts.Timeout, fetch, fallback, a.logger)
			return nil
		})
	}
	_ = g.Wait()

	feed := market.QuoteFeed{Quotes: make([]market.Quote, n), Status: market.StatusLive}
	failed := 0
	lastReason := ""
	for i, r := range results {
		feed.Quotes[i] = r.quote
		if r.reason != "" {
			failed++
			lastReason = r.reason
		}
	}
	if failed > 0 {
		feed.Status = market.StatusFallback
		feed.Reason = fmt.Sprintf("%d of %d quotes substituted: %s", failed, n, lastReason)
	}
	return feed
}

func failing[T any](err error) FetchFunc[T] {
	return func(context.Context) (T, error) {
		var zero T
		return zero, err
	}
}
