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
	defaultEIABaseURL = "https://api.eia.gov"
	eiaGasPath        = "/v2/petroleum/pri/gnd/data/"
	eiaDemoKey        = "DEMO_KEY"
)

// GasOptions parameterise the retail gasoline fetcher.
type GasOptions struct {
	Options
	Baseline decimal.Decimal
}

// Gas reads the weekly U.S. regular gasoline retail price from EIA.
type Gas struct {
	opts   GasOptions
	apiKey string
	client client
}

// NewGas constructs a gas price fetcher.
func NewGas(opts GasOptions, logger zerolog.Logger) *Gas {
	key := opts.APIKey
	if key == "" {
		key = eiaDemoKey
	}
	return &Gas{
		opts:   opts,
		apiKey: key,
		client: newClient("eia", defaultEIABaseURL, opts.Options, logger),
	}
}

// Kind implements MetricFetcher.
func (g *Gas) Kind() market.Kind { return market.KindGas }

// Fetch implements MetricFetcher.
func (g *Gas) Fetch(ctx context.Context) (market.Reading, error) {
	var resp eiaResponse
	err := g.client.getJSON(ctx, eiaGasPath, url.Values{
		"api_key":            {g.apiKey},
		"frequency":          {"weekly"},
		"data[0]":            {"value"},
		"facets[product][]":  {"EPM0"},
		"facets[duoarea][]":  {"NUS"},
		"sort[0][column]":    {"period"},
		"sort[0][direction]": {"desc"},
		"length":             {"1"},
	}, &resp)
	if err != nil {
		return market.Reading{}, err
	}
	if len(resp.Response.Data) == 0 {
		return market.Reading{}, fmt.Errorf("gas price: %w", market.ErrNoData)
	}

	row := resp.Response.Data[0]
	if !row.Value.IsPositive() {
		return market.Reading{}, fmt.Errorf("gas price %s: %w", row.Value, market.ErrNoData)
	}

	r := market.BaselineDelta(market.KindGas, row.Value, g.opts.Baseline)
	r.AsOf = parseDate(row.Period)
	return r, nil
}

type eiaResponse struct {
	Response struct {
		Data []struct {
			Period string          `json:"period"`
			Value  decimal.Decimal `json:"value"`
		} `json:"data"`
	} `json:"response"`
}

var _ MetricFetcher = (*Gas)(nil)
