package sec

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"EventPulse/internal/domain/models"
	domrepo "EventPulse/internal/domain/repository"
	"EventPulse/pkg/cache"
	xhttp "EventPulse/pkg/http"
	"EventPulse/pkg/logger"
)

const (
	defaultTickersURL     = "https://www.sec.gov/files/company_tickers.json"
	defaultSubmissionsURL = "https://data.sec.gov/submissions"

	tickersKey = "sec:tickers"
	filingsKey = "sec:filings"
)

// Client talks to the EDGAR JSON endpoints. It resolves tickers to CIKs
// and lists recent filings for a CIK.
type Client struct {
	tickersURL     string
	submissionsURL string
	http           *xhttp.Client
	cache          cache.Service
	tickersTTL     time.Duration
	filingsTTL     time.Duration
	log            *logger.Logger
}

type Option func(*Client)

func WithTickersURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.tickersURL = u
		}
	}
}

func WithSubmissionsURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.submissionsURL = strings.TrimRight(u, "/")
		}
	}
}

func WithHTTPClient(hc *xhttp.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTTL sets how long the ticker map and filing lists stay cached.
// A zero TTL keeps the ticker map until Invalidate.
func WithTTL(tickers, filings time.Duration) Option {
	return func(c *Client) {
		c.tickersTTL = tickers
		c.filingsTTL = filings
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient requires a cache for the ticker map and a User-Agent, which EDGAR enforces.
func NewClient(userAgent string, store cache.Service, opts ...Option) (*Client, error) {
	if strings.TrimSpace(userAgent) == "" {
		return nil, fmt.Errorf("sec user agent: %w", models.ErrInvalidInput)
	}
	if store == nil {
		return nil, fmt.Errorf("sec cache: %w", models.ErrInvalidInput)
	}
	c := &Client{
		tickersURL:     defaultTickersURL,
		submissionsURL: defaultSubmissionsURL,
		cache:          store,
		log:            logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = xhttp.NewClient(
			xhttp.WithTimeout(15*time.Second),
			xhttp.WithUserAgent(userAgent),
			xhttp.WithRateLimit(10, 1),
		)
	}
	return c, nil
}

var (
	_ domrepo.TickerResolver = (*Client)(nil)
	_ domrepo.FilingSource   = (*Client)(nil)
)

type tickerEntry struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// Resolve maps ticker to a zero-padded 10 digit CIK.
func (c *Client) Resolve(ctx context.Context, ticker string) (string, bool, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return "", false, nil
	}
	m, err := cache.GetOrLoad(ctx, c.cache, tickersKey, c.tickersTTL, c.loadTickers)
	if err != nil {
		return "", false, err
	}
	cik, ok := m[ticker]
	return cik, ok, nil
}

// Invalidate drops the cached ticker map and any cached filings; the next
// Resolve or Filings call reloads them.
func (c *Client) Invalidate(ctx context.Context) error {
	if err := c.cache.Delete(ctx, tickersKey); err != nil {
		return fmt.Errorf("invalidate ticker map: %w", err)
	}
	// cached submissions may predate a CIK reassignment
	if err := c.cache.DeleteByPattern(ctx, cache.BuildPattern(filingsKey+":")); err != nil {
		return fmt.Errorf("invalidate filings: %w", err)
	}
	c.log.Info("sec ticker map and filings invalidated")
	return nil
}

func (c *Client) loadTickers(ctx context.Context) (map[string]string, error) {
	var raw map[string]tickerEntry
	if err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{Method: xhttp.MethodGet, URL: c.tickersURL}, &raw); err != nil {
		return nil, fmt.Errorf("sec ticker map: %w", err)
	}
	out := make(map[string]string, len(raw))
	for _, e := range raw {
		if e.Ticker == "" {
			continue
		}
		out[strings.ToUpper(e.Ticker)] = PadCIK(e.CIK)
	}
	c.log.Info("sec ticker map loaded", logger.Int("tickers", len(out)))
	return out, nil
}

// PadCIK formats a CIK the way the submissions endpoint expects.
func PadCIK(cik int64) string {
	return fmt.Sprintf("%010d", cik)
}

type submissions struct {
	Filings struct {
		Recent struct {
			AccessionNumber       []string `json:"accessionNumber"`
			FilingDate            []string `json:"filingDate"`
			Form                  []string `json:"form"`
			PrimaryDocDescription []string `json:"primaryDocDescription"`
			Items                 []string `json:"items"`
		} `json:"recent"`
	} `json:"filings"`
}

// Filings lists the recent filings of cik in source order.
func (c *Client) Filings(ctx context.Context, cik string) ([]models.RawFiling, error) {
	cik = strings.TrimSpace(cik)
	if cik == "" {
		return nil, fmt.Errorf("cik: %w", models.ErrInvalidInput)
	}
	if n, err := strconv.ParseInt(cik, 10, 64); err == nil {
		cik = PadCIK(n)
	}
	if c.filingsTTL <= 0 {
		return c.fetchFilings(ctx, cik)
	}
	return cache.GetOrLoad(ctx, c.cache, cache.GenerateKey(filingsKey, cik), c.filingsTTL, func(ctx context.Context) ([]models.RawFiling, error) {
		return c.fetchFilings(ctx, cik)
	})
}

func (c *Client) fetchFilings(ctx context.Context, cik string) ([]models.RawFiling, error) {
	var sub submissions
	url := fmt.Sprintf("%s/CIK%s.json", c.submissionsURL, cik)
	if err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{Method: xhttp.MethodGet, URL: url}, &sub); err != nil {
		return nil, fmt.Errorf("sec submissions %s: %w", cik, err)
	}

	r := sub.Filings.Recent
	// the columns are parallel arrays; zip to the shortest mandatory one
	n := len(r.Form)
	if len(r.FilingDate) < n {
		n = len(r.FilingDate)
	}
	out := make([]models.RawFiling, 0, n)
	for i := 0; i < n; i++ {
		f := models.RawFiling{
			FormCode:   strings.TrimSpace(r.Form[i]),
			FilingDate: strings.TrimSpace(r.FilingDate[i]),
		}
		if i < len(r.PrimaryDocDescription) {
			f.Description = strings.TrimSpace(r.PrimaryDocDescription[i])
		}
		if i < len(r.AccessionNumber) {
			f.Accession = r.AccessionNumber[i]
		}
		if i < len(r.Items) {
			f.Items = splitItems(r.Items[i])
		}
		out = append(out, f)
	}
	return out, nil
}

// splitItems parses the comma separated items column ("2.02,9.01").
func splitItems(s string) []string {
	var out []string
	for _, it := range strings.Split(s, ",") {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}
