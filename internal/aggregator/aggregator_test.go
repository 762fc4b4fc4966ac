package aggregator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"trumpwatch/internal/config"
	"trumpwatch/internal/fetcher"
	"trumpwatch/internal/market"
)

func testFallbacks() Fallbacks {
	return NewFallbacks(config.FallbacksConfig{
		Debt:            36500000000000,
		Gas:             2.95,
		SP500:           5950,
		Unemployment:    4.1,
		Inflation:       2.9,
		Bitcoin:         100000,
		Gold:            2650,
		Oil:             72,
		ExecutiveOrders: 0,
		Quote: config.QuoteFallback{
			Text:       "I will fight for you with every breath in my body.",
			AppearedAt: time.Date(2017, 1, 20, 12, 0, 0, 0, time.UTC),
		},
		Post: config.PostFallback{Content: "Post feed unavailable."},
	}, config.BaselinesConfig{Debt: 36218605000000, Gas: 3.08, Bitcoin: 101000, Gold: 2750})
}

type stubMetric struct {
	kind  market.Kind
	value int64
	delay time.Duration
	err   error
	panic bool
	// hang ignores ctx and sleeps for delay.
	hang  bool
	calls atomic.Int32
}

func (s *stubMetric) Kind() market.Kind { return s.kind }

func (s *stubMetric) Fetch(ctx context.Context) (market.Reading, error) {
	s.calls.Add(1)
	if s.panic {
		panic("boom")
	}
	if s.hang {
		time.Sleep(s.delay)
	} else if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return market.Reading{}, ctx.Err()
		}
	}
	if s.err != nil {
		return market.Reading{}, s.err
	}
	r := market.Count(s.kind, s.value, time.Now())
	return r, nil
}

type stubQuotes struct {
	calls atomic.Int32
	// failEvery makes every n-th call fail.
	failEvery int32
}

func (s *stubQuotes) FetchQuote(context.Context) (market.Quote, error) {
	n := s.calls.Add(1)
	if s.failEvery > 0 && n%s.failEvery == 0 {
		return market.Quote{}, errors.New("quote api down")
	}
	return market.Quote{Text: "live quote"}, nil
}

type stubPosts struct{ err error }

func (s stubPosts) FetchLatestPost(context.Context) (market.Post, error) {
	if s.err != nil {
		return market.Post{}, s.err
	}
	return market.Post{ID: "1", Content: "live post"}, nil
}

func TestResolveFallbackOnError(t *testing.T) {
	fb := testFallbacks()
	got := Resolve(context.Background(), "gas", time.Second,
		func(context.Context) (market.Reading, error) { return market.Reading{}, errors.New("connection refused") },
		fb.Reading(market.KindGas), zerolog.Nop())

	if !got.Fallback() || got.Reason != "connection refused" {
		t.Fatalf("expected fallback with reason, got %+v", got)
	}
	if !got.Value.Equal(decimal.RequireFromString("2.95")) || !got.Change.Equal(decimal.RequireFromString("-0.13")) {
		t.Fatalf("unexpected gas fallback: value=%s change=%s", got.Value, got.Change)
	}
}

func TestResolveRecoversPanic(t *testing.T) {
	got := Resolve(context.Background(), "sp500", time.Second,
		func(context.Context) (market.Reading, error) { panic("nil map") },
		testFallbacks().Reading(market.KindSP500), zerolog.Nop())

	if !got.Fallback() || !strings.Contains(got.Reason, "panic") {
		t.Fatalf("panic should become a fallback, got %+v", got)
	}
}

func TestResolveBoundedByTimeout(t *testing.T) {
	timeout := 50 * time.Millisecond
	start := time.Now()
	got := Resolve(context.Background(), "debt", timeout,
		func(context.Context) (market.Reading, error) {
			time.Sleep(2 * time.Second) // ignores ctx
			return market.Reading{}, nil
		},
		testFallbacks().Reading(market.KindDebt), zerolog.Nop())

	if elapsed := time.Since(start); elapsed > timeout+250*time.Millisecond {
		t.Fatalf("resolve exceeded its timeout: %s", elapsed)
	}
	if !got.Fallback() || !strings.Contains(got.Reason, "timed out") {
		t.Fatalf("expected timeout fallback, got %+v", got)
	}
}

func TestResolveNilFetch(t *testing.T) {
	got := Resolve[market.Reading](context.Background(), "oil", time.Second, nil, testFallbacks().Reading(market.KindOil), zerolog.Nop())
	if !got.Fallback() || got.Reason != errNotConfigured.Error() {
		t.Fatalf("nil fetch should fall back, got %+v", got)
	}
	if !got.Value.Equal(decimal.NewFromInt(72)) {
		t.Fatalf("unexpected oil fallback %s", got.Value)
	}
}

func TestResolveLive(t *testing.T) {
	want := market.Count(market.KindExecutiveOrders, 12, time.Now())
	got := Resolve(context.Background(), "eo", time.Second,
		func(context.Context) (market.Reading, error) { return want, nil },
		testFallbacks().Reading(market.KindExecutiveOrders), zerolog.Nop())
	if !got.OK() || !got.Value.Equal(want.Value) {
		t.Fatalf("expected live reading, got %+v", got)
	}
}

func TestRefreshToleratesPartialFailure(t *testing.T) {
	timeout := 200 * time.Millisecond
	stubs := map[market.Kind]*stubMetric{
		market.KindDebt:            {kind: market.KindDebt, value: 37, delay: 30 * time.Millisecond},
		market.KindGas:             {kind: market.KindGas, err: errors.New("eia 503")},
		market.KindSP500:           {kind: market.KindSP500, value: 6000, delay: 30 * time.Millisecond},
		market.KindUnemployment:    {kind: market.KindUnemployment, value: 4, delay: 30 * time.Millisecond},
		market.KindInflation:       {kind: market.KindInflation, value: 3, delay: 30 * time.Millisecond},
		market.KindBitcoin:         {kind: market.KindBitcoin, panic: true},
		market.KindGold:            {kind: market.KindGold, hang: true, delay: time.Second},
		market.KindOil:             {kind: market.KindOil, value: 70, delay: 30 * time.Millisecond},
		market.KindExecutiveOrders: {kind: market.KindExecutiveOrders, value: 150, delay: 30 * time.Millisecond},
	}
	var metrics []fetcher.MetricFetcher
	for _, s := range stubs {
		metrics = append(metrics, s)
	}

	agg := New(Sources{Metrics: metrics, Quotes: &stubQuotes{}, Posts: stubPosts{}},
		testFallbacks(), Options{Timeout: timeout, QuoteCount: 3}, zerolog.Nop())

	start := time.Now()
	d := agg.Refresh(context.Background())
	elapsed := time.Since(start)

	// Sequential execution would take well over the sum of delays.
	if elapsed > timeout+300*time.Millisecond {
		t.Fatalf("refresh should be bounded by a single timeout, took %s", elapsed)
	}

	for _, r := range d.Readings() {
		if r.Status == "" {
			t.Fatalf("metric %s left unpopulated", r.Kind)
		}
		if r.Value.IsZero() && r.Kind != market.KindExecutiveOrders {
			t.Fatalf("metric %s has no value", r.Kind)
		}
	}

	want := []market.Kind{market.KindGas, market.KindBitcoin, market.KindGold}
	if len(d.Fallbacks) != len(want) {
		t.Fatalf("expected fallbacks %v, got %v", want, d.Fallbacks)
	}
	for _, k := range want {
		if !d.FellBack(k) {
			t.Fatalf("%s should have fallen back: %v", k, d.Fallbacks)
		}
	}
	if d.Warning != FeedWarning {
		t.Fatalf("degraded refresh should carry the feed warning, got %q", d.Warning)
	}
	if !d.SP500.OK() || !d.SP500.Value.Equal(decimal.NewFromInt(6000)) {
		t.Fatalf("healthy source should stay live: %+v", d.SP500)
	}
	if !d.Bitcoin.Value.Equal(decimal.NewFromInt(100000)) {
		t.Fatalf("bitcoin should use its fallback value, got %s", d.Bitcoin.Value)
	}
	if len(d.Quotes.Quotes) != 3 || d.Quotes.Fallback() {
		t.Fatalf("quotes should be live: %+v", d.Quotes)
	}
	if d.Post.Post.Content != "live post" {
		t.Fatalf("post should be live: %+v", d.Post)
	}
	if d.RefreshedAt.IsZero() || d.Duration <= 0 {
		t.Fatalf("refresh metadata missing: %+v", d)
	}
}

func TestRefreshAllHealthy(t *testing.T) {
	var metrics []fetcher.MetricFetcher
	for i, k := range market.NumericKinds {
		metrics = append(metrics, &stubMetric{kind: k, value: int64(i + 1)})
	}
	agg := New(Sources{Metrics: metrics, Quotes: &stubQuotes{}, Posts: stubPosts{}},
		testFallbacks(), Options{Timeout: time.Second, QuoteCount: 2}, zerolog.Nop())

	d := agg.Refresh(context.Background())
	if d.Degraded() || d.Warning != "" {
		t.Fatalf("healthy refresh should not be degraded: %v %q", d.Fallbacks, d.Warning)
	}
}

func TestRefreshWithoutSources(t *testing.T) {
	agg := New(Sources{}, testFallbacks(), Options{Timeout: time.Second, QuoteCount: 2}, zerolog.Nop())

	d := agg.Refresh(context.Background())
	if len(d.Fallbacks) != len(market.NumericKinds)+2 {
		t.Fatalf("every source should fall back, got %v", d.Fallbacks)
	}
	if d.Quotes.Quotes[0].Text == "" || d.Post.Post.Content == "" {
		t.Fatalf("feed fallbacks should be populated: %+v %+v", d.Quotes, d.Post)
	}
}

func TestRefreshDisabledSkipsNetwork(t *testing.T) {
	gas := &stubMetric{kind: market.KindGas, value: 3}
	agg := New(Sources{Metrics: []fetcher.MetricFetcher{gas}}, testFallbacks(),
		Options{Timeout: time.Second, Disabled: []market.Kind{market.KindGas}}, zerolog.Nop())

	d := agg.Refresh(context.Background())
	if gas.calls.Load() != 0 {
		t.Fatal("disabled source must not be fetched")
	}
	if !d.Gas.Fallback() || d.Gas.Reason != errDisabled.Error() {
		t.Fatalf("disabled source should fall back, got %+v", d.Gas)
	}
}

func TestRefreshQuotesFallBackIndividually(t *testing.T) {
	quotes := &stubQuotes{failEvery: 2}
	agg := New(Sources{Quotes: quotes}, testFallbacks(), Options{Timeout: time.Second, QuoteCount: 7}, zerolog.Nop())

	d := agg.Refresh(context.Background())
	if len(d.Quotes.Quotes) != 7 {
		t.Fatalf("expected 7 quotes, got %d", len(d.Quotes.Quotes))
	}

	live, substituted := 0, 0
	for _, q := range d.Quotes.Quotes {
		switch q.Text {
		case "live quote":
			live++
		case "I will fight for you with every breath in my body.":
			substituted++
		}
	}
	if live != 4 || substituted != 3 {
		t.Fatalf("expected 4 live and 3 substituted, got %d/%d", live, substituted)
	}
	if !d.Quotes.Fallback() || !strings.HasPrefix(d.Quotes.Reason, "3 of 7") {
		t.Fatalf("unexpected quote feed status: %+v", d.Quotes)
	}
}

func TestFallbackPricesCarryNoChange(t *testing.T) {
	fb := testFallbacks()
	for _, kind := range []market.Kind{market.KindBitcoin, market.KindGold} {
		r := fb.Reading(kind)("down")
		if !r.Change.IsZero() || !r.ChangePercent.IsZero() {
			t.Fatalf("fallback %s should carry no change, got change=%s pct=%s", kind, r.Change, r.ChangePercent)
		}
		if r.ReferenceKind != market.ReferenceNone {
			t.Fatalf("fallback %s should have no reference, got %s", kind, r.ReferenceKind)
		}
	}
	if r := fb.Reading(market.KindGold)("down"); !r.Value.Equal(decimal.NewFromInt(2650)) {
		t.Fatalf("unexpected gold fallback value %s", r.Value)
	}
}

func TestWorkerCallbackOncePerRequest(t *testing.T) {
	var refreshes atomic.Int32
	entered := make(chan struct{})
	gate := make(chan struct{})

	w := NewWorker(func(ctx context.Context) Dashboard {
		n := refreshes.Add(1)
		if n == 1 {
			close(entered)
			<-gate
		}
		return Dashboard{Warning: string(rune('0' + n))}
	}, zerolog.Nop())
	w.Start(context.Background())
	defer w.Close()

	var mu sync.Mutex
	got := map[int][]string{}
	var wg sync.WaitGroup
	request := func(id int) {
		wg.Add(1)
		if !w.Request(func(d Dashboard) {
			mu.Lock()
			got[id] = append(got[id], d.Warning)
			mu.Unlock()
			wg.Done()
		}) {
			t.Fatalf("request %d rejected", id)
		}
	}

	request(1)
	<-entered
	request(2)
	request(3)
	request(4)
	close(gate)

	waitTimeout(t, &wg, 2*time.Second)

	if refreshes.Load() != 2 {
		t.Fatalf("queued requests should coalesce into one refresh, got %d refreshes", refreshes.Load())
	}
	mu.Lock()
	defer mu.Unlock()
	for id := 1; id <= 4; id++ {
		if len(got[id]) != 1 {
			t.Fatalf("callback %d fired %d times", id, len(got[id]))
		}
	}
	if got[1][0] != "1" || got[2][0] != "2" || got[4][0] != "2" {
		t.Fatalf("callbacks received the wrong refresh: %v", got)
	}
}

func TestWorkerRefreshNowAndClose(t *testing.T) {
	w := NewWorker(func(ctx context.Context) Dashboard {
		return Dashboard{Warning: "done"}
	}, zerolog.Nop())
	w.Start(context.Background())

	d, err := w.RefreshNow(context.Background())
	if err != nil || d.Warning != "done" {
		t.Fatalf("unexpected refresh result: %+v %v", d, err)
	}

	w.Close()
	if w.Request(func(Dashboard) {}) {
		t.Fatal("closed worker should reject requests")
	}
	if _, err := w.RefreshNow(context.Background()); !errors.Is(err, ErrWorkerClosed) {
		t.Fatalf("expected ErrWorkerClosed, got %v", err)
	}
	w.Close()
}

func TestWorkerServesQueuedOnClose(t *testing.T) {
	w := NewWorker(func(ctx context.Context) Dashboard { return Dashboard{} }, zerolog.Nop())

	var fired atomic.Int32
	w.Request(func(Dashboard) { fired.Add(1) })
	w.Close()

	if fired.Load() != 1 {
		t.Fatalf("queued request should be served on close, fired %d", fired.Load())
	}
}

func waitTimeout(t *testing.T, wg *sync.WaitGroup, d time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatal("timed out waiting for callbacks")
	}
}
