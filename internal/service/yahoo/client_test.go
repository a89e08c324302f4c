package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"MacroPulse/internal/service/ratelimit"
	"MacroPulse/pkg/cache"
)

const chartBody = `{
  "chart": {
    "result": [{
      "meta": {"regularMarketPrice": 105.5, "chartPreviousClose": 100.0},
      "timestamp": [1700000000, 1700086400, 1700172800],
      "indicators": {"quote": [{"close": [100.0, null, 104.0]}]}
    }],
    "error": null
  }
}`

func TestDailyParsesChart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v8/finance/chart/VWRA" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("interval"); got != "1d" {
			t.Fatalf("unexpected interval %s", got)
		}
		if got := r.URL.Query().Get("range"); got != "1y" {
			t.Fatalf("unexpected range %s", got)
		}
		fmt.Fprint(w, chartBody)
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	h, err := c.Daily(context.Background(), "VWRA")
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	if h.Current != 105.5 || h.PreviousClose != 100.0 {
		t.Fatalf("unexpected meta %+v", h)
	}
	if len(h.Closes) != 3 || h.Closes[1] != nil {
		t.Fatalf("expected nil gap preserved, got %+v", h.Closes)
	}
}

func TestHourlyUsesIntradayParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("interval"); got != "1h" {
			t.Fatalf("unexpected interval %s", got)
		}
		if got := r.URL.Query().Get("range"); got != "1d" {
			t.Fatalf("unexpected range %s", got)
		}
		fmt.Fprint(w, chartBody)
	}))
	defer srv.Close()

	if _, err := New(srv.URL, 5*time.Second).Hourly(context.Background(), "GC=F"); err != nil {
		t.Fatalf("hourly: %v", err)
	}
}

func TestChartUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart": {"result": [], "error": {"code": "Not Found", "description": "No data found"}}}`)
	}))
	defer srv.Close()

	if _, err := New(srv.URL, 5*time.Second).Daily(context.Background(), "NOPE"); err == nil {
		t.Fatalf("expected upstream error")
	}
}

func TestChartCacheHitSkipsUpstream(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, chartBody)
	}))
	defer srv.Close()

	mc := cache.NewMemoryCache()
	defer mc.Close()

	c := New(srv.URL, 5*time.Second, WithCache(mc, time.Minute))
	for i := 0; i < 3; i++ {
		if _, err := c.Daily(context.Background(), "VWRA"); err != nil {
			t.Fatalf("daily: %v", err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected 1 upstream call, got %d", calls)
	}
}

func TestChartRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartBody)
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second, WithRateLimit(1, 0))
	if _, err := c.Daily(context.Background(), "A"); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := c.Daily(context.Background(), "B"); !errors.Is(err, ratelimit.ErrExhausted) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
}

func TestChartWaitsForRefill(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, chartBody)
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second, WithRateLimit(2, 100))
	for _, sym := range []string{"A", "B", "C", "D"} {
		if _, err := c.Daily(context.Background(), sym); err != nil {
			t.Fatalf("daily %s: %v", sym, err)
		}
	}
	if calls != 4 {
		t.Fatalf("expected every fetch to reach upstream, got %d", calls)
	}
}
