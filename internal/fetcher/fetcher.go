package fetcher

import (
	"context"

	"trumpwatch/internal/market"
)

// MetricFetcher retrieves one numeric metric and derives its change.
type MetricFetcher interface {
	Kind() market.Kind
	Fetch(ctx context.Context) (market.Reading, error)
}

// QuoteFetcher retrieves a single random quote.
type QuoteFetcher interface {
	FetchQuote(ctx context.Context) (market.Quote, error)
}

// PostFetcher retrieves the newest social-media post.
type PostFetcher interface {
	FetchLatestPost(ctx context.Context) (market.Post, error)
}
