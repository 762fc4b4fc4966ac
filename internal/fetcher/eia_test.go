package fetcher

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"trumpwatch/internal/market"
)

func TestGasFetch(t *testing.T) {
	var last *http.Request
	srv := jsonServer(t, http.StatusOK, map[string]any{
		"response": map[string]any{
			"data": []map[string]any{{"period": "2025-06-02", "value": "3.150"}},
		},
	}, &last)

	g := NewGas(GasOptions{Options: Options{BaseURL: srv.URL}, Baseline: dec("3.08")}, noopLogger())
	r, err := g.Fetch(context.Background())
	if err != nil {
		t.Fatalf("成功响应不应报错: %v", err)
	}
	if !r.Change.Equal(dec("0.07")) {
		t.Fatalf("期望变化 0.07, 实际 %s", r.Change)
	}
	if last.URL.Query().Get("api_key") != eiaDemoKey {
		t.Fatalf("未配置 key 时应使用 DEMO_KEY")
	}
	if last.URL.Query().Get("facets[product][]") != "EPM0" {
		t.Fatalf("product facet 不正确: %s", last.URL.RawQuery)
	}
}

func TestGasNumericValue(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, map[string]any{
		"response": map[string]any{"data": []map[string]any{{"period": "2025-06-02", "value": 2.95}}},
	}, nil)

	g := NewGas(GasOptions{Options: Options{BaseURL: srv.URL, APIKey: "real"}, Baseline: dec("3.08")}, noopLogger())
	r, err := g.Fetch(context.Background())
	if err != nil {
		t.Fatalf("数值型 value 应可解析: %v", err)
	}
	if !r.Change.Equal(dec("-0.13")) {
		t.Fatalf("期望变化 -0.13, 实际 %s", r.Change)
	}
}

func TestGasRejectsZero(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, map[string]any{
		"response": map[string]any{"data": []map[string]any{{"period": "2025-06-02", "value": nil}}},
	}, nil)

	g := NewGas(GasOptions{Options: Options{BaseURL: srv.URL}, Baseline: dec("3.08")}, noopLogger())
	if _, err := g.Fetch(context.Background()); !errors.Is(err, market.ErrNoData) {
		t.Fatalf("空 value 应返回 ErrNoData, 实际 %v", err)
	}
}
