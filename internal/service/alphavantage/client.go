package alphavantage

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"EventPulse/internal/domain/models"
	domrepo "EventPulse/internal/domain/repository"
	"EventPulse/pkg/cache"
	xhttp "EventPulse/pkg/http"
	"EventPulse/pkg/logger"
	"EventPulse/pkg/util"
)

const (
	defaultBaseURL = "https://www.alphavantage.co/query"
	cachePrefix    = "av:daily"
)

// Client fetches daily OHLCV history from Alpha Vantage.
type Client struct {
	baseURL    string
	apiKey     string
	outputSize string
	http       *xhttp.Client
	cache      cache.Service
	cacheTTL   time.Duration
	log        *logger.Logger
}

type Option func(*Client)

// WithBaseURL overrides the query endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithOutputSize sets outputsize (compact or full).
func WithOutputSize(s string) Option {
	return func(c *Client) {
		if s != "" {
			c.outputSize = s
		}
	}
}

// WithHTTPClient replaces the transport client.
func WithHTTPClient(hc *xhttp.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithCache caches parsed histories per ticker for ttl.
func WithCache(svc cache.Service, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = svc
		c.cacheTTL = ttl
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		outputSize: "compact",
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = xhttp.NewClient(xhttp.WithTimeout(15*time.Second), xhttp.WithRateLimit(0.2, 1))
	}
	return c
}

var _ domrepo.PriceSource = (*Client)(nil)

type dailyResponse struct {
	ErrorMessage string                `json:"Error Message"`
	Note         string                `json:"Note"`
	Information  string                `json:"Information"`
	Series       map[string]dailyPoint `json:"Time Series (Daily)"`
}

type dailyPoint struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

// DailyHistory returns the ascending daily history for ticker.
// Provider throttling and unknown tickers yield an empty slice.
func (c *Client) DailyHistory(ctx context.Context, ticker string) ([]models.TradingDay, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("ticker: %w", models.ErrInvalidInput)
	}
	if c.cache == nil {
		return c.fetch(ctx, ticker)
	}
	key := cache.GenerateKeyWithParams(cachePrefix, ticker, c.outputSize)
	var cached []models.TradingDay
	if err := c.cache.Get(ctx, key, &cached); err == nil && len(cached) > 0 {
		return cached, nil
	}
	days, err := c.fetch(ctx, ticker)
	if err != nil {
		return nil, err
	}
	// empty answers are throttling or unknown symbols; don't pin them
	if len(days) > 0 {
		if err := c.cache.Set(ctx, key, days, c.cacheTTL); err != nil {
			c.log.Warn("price cache set failed", logger.String("ticker", ticker), logger.Error(err))
		}
	}
	return days, nil
}

func (c *Client) fetch(ctx context.Context, ticker string) ([]models.TradingDay, error) {
	var resp dailyResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL,
		QueryParams: map[string][]string{
			"function":   {"TIME_SERIES_DAILY"},
			"symbol":     {ticker},
			"outputsize": {c.outputSize},
			"apikey":     {c.apiKey},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("alphavantage daily %s: %w", ticker, err)
	}

	switch {
	case resp.Note != "" || resp.Information != "":
		c.log.Warn("alphavantage throttled", logger.String("ticker", ticker))
		return nil, nil
	case resp.ErrorMessage != "":
		c.log.Warn("alphavantage rejected symbol", logger.String("ticker", ticker), logger.String("message", resp.ErrorMessage))
		return nil, nil
	}

	return parseSeries(resp.Series)
}

func parseSeries(series map[string]dailyPoint) ([]models.TradingDay, error) {
	dates := make([]string, 0, len(series))
	for d := range series {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	out := make([]models.TradingDay, 0, len(dates))
	for i, ds := range dates {
		t, err := time.Parse(util.DateLayout, ds)
		if err != nil {
			return nil, &models.MalformedDataError{Source: "price", Field: "date", Index: i, Value: ds, Err: err}
		}
		p := series[ds]
		day := models.TradingDay{Date: t}
		for _, f := range []struct {
			name string
			raw  string
			dst  *decimal.Decimal
		}{
			{"open", p.Open, &day.Open},
			{"high", p.High, &day.High},
			{"low", p.Low, &day.Low},
			{"close", p.Close, &day.Close},
		} {
			v, err := decimal.NewFromString(strings.TrimSpace(f.raw))
			if err != nil {
				return nil, &models.MalformedDataError{Source: "price", Field: f.name, Index: i, Value: f.raw, Err: err}
			}
			*f.dst = v
		}
		vol, err := strconv.ParseInt(strings.TrimSpace(p.Volume), 10, 64)
		if err != nil {
			return nil, &models.MalformedDataError{Source: "price", Field: "volume", Index: i, Value: p.Volume, Err: err}
		}
		day.Volume = vol
		out = append(out, day)
	}
	return out, nil
}
