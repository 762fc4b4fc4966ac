package fetcher

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"trumpwatch/internal/market"
)

const (
	defaultCoinGeckoBaseURL = "https://api.coingecko.com/api/v3"
	coinGeckoPricePath      = "/simple/price"
	coinGeckoBitcoinID      = "bitcoin"
)

// BitcoinOptions parameterise the CoinGecko fetcher.
type BitcoinOptions struct {
	Options
	Baseline decimal.Decimal
}

// Bitcoin reads the BTC/USD spot price from CoinGecko. The change is measured
// against the term-start baseline while the percent is the provider's
// trailing 24h change.
type Bitcoin struct {
	opts   BitcoinOptions
	client client
}

// NewBitcoin constructs a bitcoin fetcher.
func NewBitcoin(opts BitcoinOptions, logger zerolog.Logger) *Bitcoin {
	return &Bitcoin{
		opts:   opts,
		client: newClient("coingecko", defaultCoinGeckoBaseURL, opts.Options, logger),
	}
}

// Kind implements MetricFetcher.
func (b *Bitcoin) Kind() market.Kind { return market.KindBitcoin }

// Fetch implements MetricFetcher.
func (b *Bitcoin) Fetch(ctx context.Context) (market.Reading, error) {
	query := url.Values{
		"ids":                 {coinGeckoBitcoinID},
		"vs_currencies":       {"usd"},
		"include_24hr_change": {"true"},
	}
	if b.opts.APIKey != "" {
		query.Set("x_cg_demo_api_key", b.opts.APIKey)
	}

	// Shape: {"bitcoin": {"usd": 97000, "usd_24h_change": 2.34}}
	var resp map[string]struct {
		USD       decimal.Decimal `json:"usd"`
		Change24h decimal.Decimal `json:"usd_24h_change"`
	}
	if err := b.client.getJSON(ctx, coinGeckoPricePath, query, &resp); err != nil {
		return market.Reading{}, err
	}

	quote, ok := resp[coinGeckoBitcoinID]
	if !ok || !quote.USD.IsPositive() {
		return market.Reading{}, fmt.Errorf("bitcoin price: %w", market.ErrNoData)
	}

	r := market.BaselineDelta(market.KindBitcoin, quote.USD, b.opts.Baseline)
	r.ChangePercent = quote.Change24h
	return r, nil
}

var _ MetricFetcher = (*Bitcoin)(nil)
