package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"trumpwatch/internal/market"
)

const (
	defaultFREDBaseURL   = "https://api.stlouisfed.org/fred"
	fredObservationsPath = "/series/observations"
	fredMissingValue     = "."

	// Daily series skip market holidays, so a few extra rows guarantee two
	// valid observations.
	periodObservations = 5
	// A year-over-year rate plus the previous month's rate, with one spare
	// row in case the newest month is not published yet.
	inflationObservations = 15
	yoyMonths             = 12
)

// Series identifiers on FRED.
const (
	SeriesSP500        = "SP500"
	SeriesWTI          = "DCOILWTICO"
	SeriesUnemployment = "UNRATE"
	SeriesCPI          = "CPIAUCSL"
)

var errNoFREDKey = errors.New("fred api key not configured")

type observation struct {
	date  time.Time
	value decimal.Decimal
}

type fred struct {
	apiKey string
	client client
}

func newFRED(opts Options, logger zerolog.Logger) fred {
	return fred{
		apiKey: opts.APIKey,
		client: newClient("fred", defaultFREDBaseURL, opts, logger),
	}
}

// observations returns up to limit valid observations, newest first.
func (f fred) observations(ctx context.Context, seriesID string, limit int) ([]observation, error) {
	if f.apiKey == "" {
		return nil, errNoFREDKey
	}

	var resp observationsResponse
	err := f.client.getJSON(ctx, fredObservationsPath, url.Values{
		"series_id":  {seriesID},
		"api_key":    {f.apiKey},
		"file_type":  {"json"},
		"sort_order": {"desc"},
		"limit":      {strconv.Itoa(limit)},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("series %s: %w", seriesID, err)
	}

	out := make([]observation, 0, len(resp.Observations))
	for _, o := range resp.Observations {
		if o.Value == fredMissingValue || o.Value == "" {
			continue
		}
		v, err := decimal.NewFromString(o.Value)
		if err != nil {
			return nil, fmt.Errorf("series %s value %q: %w", seriesID, o.Value, err)
		}
		out = append(out, observation{date: parseDate(o.Date), value: v})
	}
	return out, nil
}

type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// FREDSeries compares the latest observation of a series with the one
// before it.
type FREDSeries struct {
	kind     market.Kind
	seriesID string
	fred     fred
}

// NewFREDSeries constructs a period-change fetcher for seriesID.
func NewFREDSeries(kind market.Kind, seriesID string, opts Options, logger zerolog.Logger) *FREDSeries {
	return &FREDSeries{
		kind:     kind,
		seriesID: seriesID,
		fred:     newFRED(opts, logger.With().Str("series", seriesID).Logger()),
	}
}

// Kind implements MetricFetcher.
func (s *FREDSeries) Kind() market.Kind { return s.kind }

// Fetch implements MetricFetcher.
func (s *FREDSeries) Fetch(ctx context.Context) (market.Reading, error) {
	obs, err := s.fred.observations(ctx, s.seriesID, periodObservations)
	if err != nil {
		return market.Reading{}, err
	}
	if len(obs) < 2 {
		return market.Reading{}, fmt.Errorf("series %s has %d valid observations: %w", s.seriesID, len(obs), market.ErrNoData)
	}

	r, err := market.PeriodChange(s.kind, obs[0].value, obs[1].value)
	if err != nil {
		return market.Reading{}, err
	}
	r.AsOf = obs[0].date
	return r, nil
}

// FREDInflation derives the year-over-year CPI rate.
type FREDInflation struct {
	seriesID string
	fred     fred
}

// NewFREDInflation constructs the inflation fetcher over CPIAUCSL.
func NewFREDInflation(opts Options, logger zerolog.Logger) *FREDInflation {
	return &FREDInflation{
		seriesID: SeriesCPI,
		fred:     newFRED(opts, logger.With().Str("series", SeriesCPI).Logger()),
	}
}

// Kind implements MetricFetcher.
func (f *FREDInflation) Kind() market.Kind { return market.KindInflation }

// Fetch implements MetricFetcher. Points are matched by calendar month, so a
// month FRED leaves blank never shifts the year-ago comparison.
func (f *FREDInflation) Fetch(ctx context.Context) (market.Reading, error) {
	obs, err := f.fred.observations(ctx, f.seriesID, inflationObservations)
	if err != nil {
		return market.Reading{}, err
	}
	if len(obs) == 0 || obs[0].date.IsZero() {
		return market.Reading{}, fmt.Errorf("series %s has no dated observation: %w", f.seriesID, market.ErrNoData)
	}

	byMonth := make(map[int]decimal.Decimal, len(obs))
	for _, o := range obs {
		if !o.date.IsZero() {
			byMonth[monthIndex(o.date)] = o.value
		}
	}

	latest := obs[0]
	month := monthIndex(latest.date)
	yearAgo, ok := byMonth[month-yoyMonths]
	if !ok {
		return market.Reading{}, fmt.Errorf("series %s has no value twelve months before %s: %w", f.seriesID, latest.date.Format("2006-01"), market.ErrNoData)
	}

	var prev *market.IndexPair
	if p, ok := byMonth[month-1]; ok {
		if pYearAgo, ok := byMonth[month-1-yoyMonths]; ok {
			prev = &market.IndexPair{Latest: p, YearAgo: pYearAgo}
		}
	}

	r, err := market.Inflation(market.IndexPair{Latest: latest.value, YearAgo: yearAgo}, prev)
	if err != nil {
		return market.Reading{}, err
	}
	r.AsOf = latest.date
	return r, nil
}

func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

var (
	_ MetricFetcher = (*FREDSeries)(nil)
	_ MetricFetcher = (*FREDInflation)(nil)
)
