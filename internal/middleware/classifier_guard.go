package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	domrepo "EventPulse/internal/domain/repository"
	domsvc "EventPulse/internal/domain/service"
)

// ErrClassifierUnavailable is returned while the breaker is open.
var ErrClassifierUnavailable = errors.New("sentiment classifier unavailable")

// ClassifierGuard sits between the analysis run and a remote sentiment classifier.
// Calls are throttled and pass through a circuit breaker that opens after
// consecutive failures.
type ClassifierGuard struct {
	next    domsvc.SentimentClassifier
	metrics domrepo.Metrics
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	maxLen  int
	timeout time.Duration
}

type GuardOption func(*guardConfig)

type guardConfig struct {
	rps          float64
	burst        int
	maxLen       int
	timeout      time.Duration
	failures     uint32
	openInterval time.Duration
}

// WithRate sets the allowed classifier calls per second.
func WithRate(rps float64, burst int) GuardOption {
	return func(c *guardConfig) {
		if rps > 0 {
			c.rps = rps
		}
		if burst > 0 {
			c.burst = burst
		}
	}
}

// WithMaxTextLen truncates descriptions before they are sent.
func WithMaxTextLen(n int) GuardOption {
	return func(c *guardConfig) {
		if n > 0 {
			c.maxLen = n
		}
	}
}

// WithCallTimeout bounds each downstream call.
func WithCallTimeout(d time.Duration) GuardOption {
	return func(c *guardConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithBreaker opens the circuit after n consecutive failures for the given interval.
func WithBreaker(n uint32, open time.Duration) GuardOption {
	return func(c *guardConfig) {
		if n > 0 {
			c.failures = n
		}
		if open > 0 {
			c.openInterval = open
		}
	}
}

func NewClassifierGuard(next domsvc.SentimentClassifier, metrics domrepo.Metrics, opts ...GuardOption) *ClassifierGuard {
	cfg := &guardConfig{
		rps:          5,
		burst:        1,
		maxLen:       512,
		timeout:      10 * time.Second,
		failures:     3,
		openInterval: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	g := &ClassifierGuard{
		next:    next,
		metrics: metrics,
		limiter: rate.NewLimiter(rate.Limit(cfg.rps), cfg.burst),
		maxLen:  cfg.maxLen,
		timeout: cfg.timeout,
	}
	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "sentiment",
		Timeout: cfg.openInterval,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= cfg.failures
		},
		OnStateChange: func(_ string, _, to gobreaker.State) {
			if to == gobreaker.StateOpen && g.metrics != nil {
				g.metrics.RecordError("sentiment_breaker_open")
			}
		},
	})
	return g
}

var _ domsvc.SentimentClassifier = (*ClassifierGuard)(nil)

func (g *ClassifierGuard) Classify(ctx context.Context, text string) (string, error) {
	start := time.Now()
	text = strings.TrimSpace(text)
	if text == "" {
		return domsvc.SentimentNeutral, nil
	}
	if g.maxLen > 0 {
		text = truncate(text, g.maxLen)
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("sentiment throttle: %w", err)
	}

	out, err := g.breaker.Execute(func() (interface{}, error) {
		cctx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		return g.next.Classify(cctx, text)
	})
	if err != nil {
		g.record("sentiment")
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", ErrClassifierUnavailable
		}
		return "", err
	}
	if g.metrics != nil {
		g.metrics.RecordLatency("sentiment", time.Since(start).Seconds())
	}
	return out.(string), nil
}

// State exposes the breaker state for health reporting.
func (g *ClassifierGuard) State() string {
	return g.breaker.State().String()
}

func (g *ClassifierGuard) record(kind string) {
	if g.metrics != nil {
		g.metrics.RecordError(kind)
	}
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
