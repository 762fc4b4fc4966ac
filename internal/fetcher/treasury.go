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
	defaultTreasuryBaseURL = "https://api.fiscaldata.treasury.gov/services/api/fiscal_service"
	debtToPennyPath        = "/v2/accounting/od/debt_to_penny"
)

// TreasuryOptions parameterise the public-debt fetcher.
type TreasuryOptions struct {
	Options
	// TermStart selects the first record used as the debt baseline.
	TermStart time.Time
}

// Treasury reads total public debt outstanding from the Debt to the Penny
// dataset and measures it against the first record of the term.
type Treasury struct {
	opts   TreasuryOptions
	client client
}

// NewTreasury constructs a debt fetcher.
func NewTreasury(opts TreasuryOptions, logger zerolog.Logger) *Treasury {
	return &Treasury{
		opts:   opts,
		client: newClient("treasury", defaultTreasuryBaseURL, opts.Options, logger),
	}
}

// Kind implements MetricFetcher.
func (t *Treasury) Kind() market.Kind { return market.KindDebt }

// Fetch issues the latest-record query then the term-start query.
func (t *Treasury) Fetch(ctx context.Context) (market.Reading, error) {
	latest, ok, err := t.record(ctx, url.Values{
		"sort":  {"-record_date"},
		"limit": {"1"},
	})
	if err != nil {
		return market.Reading{}, fmt.Errorf("latest debt: %w", err)
	}
	if !ok {
		return market.Reading{}, fmt.Errorf("latest debt: %w", market.ErrNoData)
	}

	baseline, ok, err := t.record(ctx, url.Values{
		"filter": {"record_date:gte:" + t.opts.TermStart.Format(time.DateOnly)},
		"sort":   {"record_date"},
		"limit":  {"1"},
	})
	if err != nil {
		return market.Reading{}, fmt.Errorf("baseline debt: %w", err)
	}
	if !ok {
		// No record published since the term began yet.
		baseline = latest
	}

	r := market.BaselineDelta(market.KindDebt, latest.amount, baseline.amount)
	r.AsOf = latest.date
	return r, nil
}

type debtRecord struct {
	amount decimal.Decimal
	date   time.Time
}

func (t *Treasury) record(ctx context.Context, query url.Values) (debtRecord, bool, error) {
	var resp debtResponse
	if err := t.client.getJSON(ctx, debtToPennyPath, query, &resp); err != nil {
		return debtRecord{}, false, err
	}
	if len(resp.Data) == 0 {
		return debtRecord{}, false, nil
	}

	row := resp.Data[0]
	amount, err := decimal.NewFromString(row.TotalPublicDebt)
	if err != nil {
		return debtRecord{}, false, fmt.Errorf("parse tot_pub_debt_out_amt %q: %w", row.TotalPublicDebt, err)
	}
	if !amount.IsPositive() {
		return debtRecord{}, false, market.ErrNoData
	}
	return debtRecord{amount: amount, date: parseDate(row.RecordDate)}, true, nil
}

type debtResponse struct {
	Data []struct {
		RecordDate      string `json:"record_date"`
		TotalPublicDebt string `json:"tot_pub_debt_out_amt"`
	} `json:"data"`
}

var _ MetricFetcher = (*Treasury)(nil)
