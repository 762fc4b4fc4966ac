package fetcher

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"trumpwatch/internal/countdown"
	"trumpwatch/internal/market"
)

func TestExecutiveOrdersCount(t *testing.T) {
	var last *http.Request
	srv := jsonServer(t, http.StatusOK, map[string]any{"count": 157, "results": []any{}}, &last)

	e := NewExecutiveOrders(ExecutiveOrdersOptions{Options: Options{BaseURL: srv.URL}, TermStart: countdown.DefaultTerm().Start}, noopLogger())
	r, err := e.Fetch(context.Background())
	if err != nil {
		t.Fatalf("成功响应不应报错: %v", err)
	}
	if !r.Value.Equal(dec("157")) || r.ReferenceKind != market.ReferenceNone {
		t.Fatalf("计数不正确: %+v", r)
	}

	q := last.URL.Query()
	if q.Get("conditions[publication_date][gte]") != "2025-01-20" || q.Get("conditions[presidential_document_type]") != "executive_order" {
		t.Fatalf("查询条件不正确: %s", last.URL.RawQuery)
	}
}

func TestExecutiveOrdersZeroIsValid(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, map[string]any{"count": 0}, nil)

	e := NewExecutiveOrders(ExecutiveOrdersOptions{Options: Options{BaseURL: srv.URL}}, noopLogger())
	r, err := e.Fetch(context.Background())
	if err != nil || !r.Value.IsZero() {
		t.Fatalf("count=0 是有效值: %v %+v", err, r)
	}
}

func TestExecutiveOrdersMissingCount(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, map[string]any{"errors": []string{"bad"}}, nil)

	e := NewExecutiveOrders(ExecutiveOrdersOptions{Options: Options{BaseURL: srv.URL}}, noopLogger())
	if _, err := e.Fetch(context.Background()); !errors.Is(err, market.ErrNoData) {
		t.Fatalf("缺少 count 应返回 ErrNoData, 实际 %v", err)
	}
}
