package fetcher

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"trumpwatch/internal/market"
)

const (
	defaultQuotesBaseURL = "https://api.tronalddump.io"
	randomQuotePath      = "/random/quote"
)

// Quotes draws random quotes from the Tronald Dump archive.
type Quotes struct {
	client client
}

// NewQuotes constructs a quote fetcher.
func NewQuotes(opts Options, logger zerolog.Logger) *Quotes {
	return &Quotes{client: newClient("quotes", defaultQuotesBaseURL, opts, logger)}
}

// FetchQuote implements QuoteFetcher.
func (q *Quotes) FetchQuote(ctx context.Context) (market.Quote, error) {
	var resp quoteResponse
	if err := q.client.getJSON(ctx, randomQuotePath, nil, &resp); err != nil {
		return market.Quote{}, err
	}

	text := strings.TrimSpace(resp.Value)
	if text == "" {
		return market.Quote{}, market.ErrNoData
	}

	quote := market.Quote{
		Text:       text,
		AppearedAt: parseDate(resp.AppearedAt),
	}
	if len(resp.Embedded.Source) > 0 {
		quote.SourceURL = resp.Embedded.Source[0].URL
	}
	return quote, nil
}

type quoteResponse struct {
	Value      string `json:"value"`
	AppearedAt string `json:"appeared_at"`
	Embedded   struct {
		Source []struct {
			URL string `json:"url"`
		} `json:"source"`
	} `json:"_embedded"`
}

var _ QuoteFetcher = (*Quotes)(nil)
