package yahoo

import (
	"context"
	"fmt"
	"time"

	"MacroPulse/internal/domain/models"
	drepo "MacroPulse/internal/domain/repository"
	"MacroPulse/internal/service/ratelimit"
	"MacroPulse/pkg/cache"
	xhttp "MacroPulse/pkg/http"
)

// Client implements a QuoteSource backed by the Yahoo Finance chart API.
// Responses are cached so a manual refresh shortly after a checkpoint reuses
// candles instead of re-hitting the upstream.
type Client struct {
	baseURL      string
	http         *xhttp.Client
	cache        cache.Service
	cacheTTL     time.Duration
	limiter      *ratelimit.Limiter
	rateCapacity float64
	ratePerSec   float64
}

// Option configures Client.
type Option func(*Client)

// New creates a new Yahoo chart client.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:      baseURL,
		http:         xhttp.NewClient(xhttp.WithTimeout(timeout), xhttp.WithUserAgent("macropulse/1.0")),
		limiter:      ratelimit.New(),
		rateCapacity: 10,
		ratePerSec:   5,
		cacheTTL:     5 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithCache enables response caching.
func WithCache(c cache.Service, ttl time.Duration) Option {
	return func(cl *Client) {
		cl.cache = c
		if ttl > 0 {
			cl.cacheTTL = ttl
		}
	}
}

// WithRateLimit sets the upstream token bucket.
func WithRateLimit(capacity, perSec float64) Option {
	return func(cl *Client) {
		cl.rateCapacity = capacity
		cl.ratePerSec = perSec
	}
}

var _ drepo.QuoteSource = (*Client)(nil)

// Daily returns one year of daily closes for symbol.
func (c *Client) Daily(ctx context.Context, symbol string) (*models.PriceHistory, error) {
	return c.chart(ctx, symbol, "1d", "1y")
}

// Hourly returns one day of hourly closes for symbol.
func (c *Client) Hourly(ctx context.Context, symbol string) (*models.PriceHistory, error) {
	return c.chart(ctx, symbol, "1h", "1d")
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (c *Client) chart(ctx context.Context, symbol, interval, spread string) (*models.PriceHistory, error) {
	key := cache.Key("chart", interval, spread, symbol)
	if c.cache != nil {
		var cached models.PriceHistory
		if err := c.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	if err := c.limiter.Wait(ctx, "chart", c.rateCapacity, c.ratePerSec); err != nil {
		return nil, fmt.Errorf("chart %s: %w", symbol, err)
	}

	var resp chartResponse
	url := fmt.Sprintf("%s/v8/finance/chart/%s", c.baseURL, symbol)
	err := c.http.GetJSON(ctx, url, map[string][]string{
		"interval": {interval},
		"range":    {spread},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("chart %s: %w", symbol, err)
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("chart %s: %s (%s)", symbol, resp.Chart.Error.Description, resp.Chart.Error.Code)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("chart %s: no data returned", symbol)
	}

	r := resp.Chart.Result[0]
	var closes []*float64
	if len(r.Indicators.Quote) > 0 {
		closes = r.Indicators.Quote[0].Close
	}

	h := &models.PriceHistory{
		Symbol:        symbol,
		Current:       r.Meta.RegularMarketPrice,
		PreviousClose: r.Meta.ChartPreviousClose,
		Timestamps:    r.Timestamp,
		Closes:        closes,
	}

	if c.cache != nil {
		_ = c.cache.Set(ctx, key, h, c.cacheTTL)
	}

	return h, nil
}
