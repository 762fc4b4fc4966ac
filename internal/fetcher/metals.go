package fetcher

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"trumpwatch/internal/market"
)

const (
	defaultMetalsBaseURL = "https://api.metals.dev/v1"
	metalsLatestPath     = "/latest"
	metalsDemoKey        = "demo"
)

// GoldOptions parameterise the metals.dev fetcher.
type GoldOptions struct {
	Options
	Baseline decimal.Decimal
}

// Gold reads the spot gold price per troy ounce in USD.
type Gold struct {
	opts   GoldOptions
	apiKey string
	client client
}

// NewGold constructs a gold fetcher.
func NewGold(opts GoldOptions, logger zerolog.Logger) *Gold {
	key := opts.APIKey
	if key == "" {
		key = metalsDemoKey
	}
	return &Gold{
		opts:   opts,
		apiKey: key,
		client: newClient("metals", defaultMetalsBaseURL, opts.Options, logger),
	}
}

// Kind implements MetricFetcher.
func (g *Gold) Kind() market.Kind { return market.KindGold }

// Fetch implements MetricFetcher. The metals block is preferred; otherwise
// the price is the inverse of the XAU currency rate.
func (g *Gold) Fetch(ctx context.Context) (market.Reading, error) {
	var resp metalsResponse
	err := g.client.getJSON(ctx, metalsLatestPath, url.Values{
		"api_key":    {g.apiKey},
		"base":       {"USD"},
		"currencies": {"XAU"},
	}, &resp)
	if err != nil {
		return market.Reading{}, err
	}

	price := resp.Metals.Gold
	if !price.IsPositive() {
		xau := resp.Rates.XAU
		if !xau.IsPositive() {
			return market.Reading{}, fmt.Errorf("gold price: %w", market.ErrNoData)
		}
		price = decimal.NewFromInt(1).Div(xau)
	}

	r := market.BaselineDelta(market.KindGold, price, g.opts.Baseline)
	r.AsOf = parseDate(resp.Timestamps.Metal)
	if r.AsOf.IsZero() {
		r.AsOf = time.Now().UTC()
	}
	return r, nil
}

type metalsResponse struct {
	Metals struct {
		Gold decimal.Decimal `json:"gold"`
	} `json:"metals"`
	Rates struct {
		XAU decimal.Decimal `json:"XAU"`
	} `json:"rates"`
	Timestamps struct {
		Metal string `json:"metal"`
	} `json:"timestamps"`
}

var _ MetricFetcher = (*Gold)(nil)
