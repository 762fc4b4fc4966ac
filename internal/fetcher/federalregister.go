package fetcher

import (
	"context"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"trumpwatch/internal/market"
)

const (
	defaultFederalRegisterBaseURL = "https://www.federalregister.gov/api/v1"
	federalRegisterDocumentsPath  = "/documents.json"
	federalRegisterPresident      = "donald-trump"
)

// ExecutiveOrdersOptions parameterise the Federal Register fetcher.
type ExecutiveOrdersOptions struct {
	Options
	TermStart time.Time
}

// ExecutiveOrders counts executive orders published since the term began.
type ExecutiveOrders struct {
	opts   ExecutiveOrdersOptions
	client client
}

// NewExecutiveOrders constructs the executive order counter.
func NewExecutiveOrders(opts ExecutiveOrdersOptions, logger zerolog.Logger) *ExecutiveOrders {
	return &ExecutiveOrders{
		opts:   opts,
		client: newClient("federal_register", defaultFederalRegisterBaseURL, opts.Options, logger),
	}
}

// Kind implements MetricFetcher.
func (e *ExecutiveOrders) Kind() market.Kind { return market.KindExecutiveOrders }

// Fetch implements MetricFetcher.
func (e *ExecutiveOrders) Fetch(ctx context.Context) (market.Reading, error) {
	var resp struct {
		Count *int64 `json:"count"`
	}
	err := e.client.getJSON(ctx, federalRegisterDocumentsPath, url.Values{
		"conditions[presidential_document_type]": {"executive_order"},
		"conditions[president]":                  {federalRegisterPresident},
		"conditions[publication_date][gte]":      {e.opts.TermStart.Format(time.DateOnly)},
		"per_page":                               {"1"},
		"fields[]":                               {"document_number"},
	}, &resp)
	if err != nil {
		return market.Reading{}, err
	}
	if resp.Count == nil {
		return market.Reading{}, market.ErrNoData
	}
	return market.Count(market.KindExecutiveOrders, *resp.Count, time.Now().UTC()), nil
}

var _ MetricFetcher = (*ExecutiveOrders)(nil)
