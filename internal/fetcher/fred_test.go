package fetcher

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"trumpwatch/internal/market"
)

func fredBody(values ...string) map[string]any {
	obs := make([]map[string]string, 0, len(values))
	for _, v := range values {
		obs = append(obs, map[string]string{"date": "2025-06-02", "value": v})
	}
	return map[string]any{"observations": obs}
}

func TestFREDSeriesPeriodChange(t *testing.T) {
	var last *http.Request
	srv := jsonServer(t, http.StatusOK, fredBody("110", ".", "100"), &last)

	f := NewFREDSeries(market.KindSP500, SeriesSP500, Options{BaseURL: srv.URL, APIKey: "k"}, noopLogger())
	r, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("成功响应不应报错: %v", err)
	}
	if !r.ChangePercent.Equal(dec("10")) {
		t.Fatalf("期望涨幅 10%%, 实际 %s", r.ChangePercent)
	}
	if r.Kind != market.KindSP500 || r.AsOf.IsZero() {
		t.Fatalf("读数字段不正确: %+v", r)
	}

	q := last.URL.Query()
	if last.URL.Path != fredObservationsPath || q.Get("series_id") != SeriesSP500 || q.Get("api_key") != "k" || q.Get("sort_order") != "desc" {
		t.Fatalf("请求参数不正确: %s", last.URL.String())
	}
}

func TestFREDSeriesRequiresKey(t *testing.T) {
	f := NewFREDSeries(market.KindOil, SeriesWTI, Options{BaseURL: "http://127.0.0.1:1"}, noopLogger())
	if _, err := f.Fetch(context.Background()); !errors.Is(err, errNoFREDKey) {
		t.Fatalf("缺少 API key 应报错, 实际 %v", err)
	}
}

func TestFREDSeriesNotEnoughObservations(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, fredBody("110", ".", "."), nil)

	f := NewFREDSeries(market.KindUnemployment, SeriesUnemployment, Options{BaseURL: srv.URL, APIKey: "k"}, noopLogger())
	if _, err := f.Fetch(context.Background()); !errors.Is(err, market.ErrNoData) {
		t.Fatalf("有效观测不足应返回 ErrNoData, 实际 %v", err)
	}
}

func TestFREDSeriesZeroPrevious(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, fredBody("4.2", "0"), nil)

	f := NewFREDSeries(market.KindUnemployment, SeriesUnemployment, Options{BaseURL: srv.URL, APIKey: "k"}, noopLogger())
	if _, err := f.Fetch(context.Background()); !errors.Is(err, market.ErrZeroReference) {
		t.Fatalf("前值为 0 应返回 ErrZeroReference, 实际 %v", err)
	}
}

// fredMonthly dates values one month apart, newest first from latest.
func fredMonthly(latest time.Time, values ...string) map[string]any {
	obs := make([]map[string]string, 0, len(values))
	for i, v := range values {
		date := latest.AddDate(0, -i, 0).Format(time.DateOnly)
		obs = append(obs, map[string]string{"date": date, "value": v})
	}
	return map[string]any{"observations": obs}
}

// cpiRows returns 14 monthly rows: 320, eleven rows of 315, 310, 300.
func cpiRows() []string {
	values := []string{"320"}
	for i := 0; i < 11; i++ {
		values = append(values, "315")
	}
	return append(values, "310", "300")
}

var cpiLatest = time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

func TestFREDInflation(t *testing.T) {
	var last *http.Request
	srv := jsonServer(t, http.StatusOK, fredMonthly(cpiLatest, cpiRows()...), &last)

	f := NewFREDInflation(Options{BaseURL: srv.URL, APIKey: "k"}, noopLogger())
	r, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("成功响应不应报错: %v", err)
	}
	if got := r.Value.Round(3); !got.Equal(dec("3.226")) {
		t.Fatalf("期望通胀率 3.226, 实际 %s", got)
	}
	if !r.Reference.Equal(dec("5")) || r.ReferenceKind != market.ReferencePrevious {
		t.Fatalf("期望上月通胀率 5, 实际 %s", r.Reference)
	}
	if !r.AsOf.Equal(cpiLatest) {
		t.Fatalf("AsOf 不正确: %s", r.AsOf)
	}
	if last.URL.Query().Get("series_id") != SeriesCPI || last.URL.Query().Get("limit") != "15" {
		t.Fatalf("请求参数不正确: %s", last.URL.RawQuery)
	}
}

func TestFREDInflationMissingMonthKeepsYearAgoAligned(t *testing.T) {
	rows := cpiRows()
	rows[5] = "."
	srv := jsonServer(t, http.StatusOK, fredMonthly(cpiLatest, rows...), nil)

	f := NewFREDInflation(Options{BaseURL: srv.URL, APIKey: "k"}, noopLogger())
	r, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("缺失单月不应报错: %v", err)
	}
	if got := r.Value.Round(3); !got.Equal(dec("3.226")) {
		t.Fatalf("应与 12 个月前 (310) 比较, 实际通胀率 %s", got)
	}
	if !r.Reference.Equal(dec("5")) {
		t.Fatalf("上月通胀率应与 13 个月前 (300) 比较, 实际 %s", r.Reference)
	}
}

func TestFREDInflationMissingYearAgo(t *testing.T) {
	rows := cpiRows()
	rows[12] = "."
	srv := jsonServer(t, http.StatusOK, fredMonthly(cpiLatest, rows...), nil)

	f := NewFREDInflation(Options{BaseURL: srv.URL, APIKey: "k"}, noopLogger())
	if _, err := f.Fetch(context.Background()); !errors.Is(err, market.ErrNoData) {
		t.Fatalf("12 个月前缺值应返回 ErrNoData, 实际 %v", err)
	}
}

func TestFREDInflationMissingPreviousMonth(t *testing.T) {
	rows := cpiRows()
	rows[13] = "."
	srv := jsonServer(t, http.StatusOK, fredMonthly(cpiLatest, rows...), nil)

	f := NewFREDInflation(Options{BaseURL: srv.URL, APIKey: "k"}, noopLogger())
	r, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("缺少上月对比点不应报错: %v", err)
	}
	if r.ReferenceKind != market.ReferenceNone || !r.Value.Round(3).Equal(dec("3.226")) {
		t.Fatalf("缺少上月对比点时只应给出当月通胀率: %+v", r)
	}
}

func TestFREDHTTPError(t *testing.T) {
	srv := jsonServer(t, http.StatusBadRequest, map[string]any{"error_code": 400, "error_message": "Bad Request. The value for variable api_key is not registered."}, nil)

	f := NewFREDSeries(market.KindSP500, SeriesSP500, Options{BaseURL: srv.URL, APIKey: "bad"}, noopLogger())
	_, err := f.Fetch(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Source != "fred" {
		t.Fatalf("应返回 fred APIError, 实际 %v", err)
	}
}
