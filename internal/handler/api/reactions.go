package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"EventPulse/internal/domain/models"
	domrepo "EventPulse/internal/domain/repository"
	icache "EventPulse/internal/service/cache"
	"EventPulse/internal/service/metrics"
	"EventPulse/internal/service/ratelimit"
	"EventPulse/internal/usecase"
	xhttp "EventPulse/pkg/http"
	applogger "EventPulse/pkg/logger"
	"EventPulse/pkg/util"
)

// StudyService runs event studies and manages the ticker map.
type StudyService interface {
	Run(ctx context.Context, p usecase.StudyParams) (*models.AnalysisResult, error)
	Invalidate(ctx context.Context) error
}

// PriceService serves loaded trading days.
type PriceService interface {
	GetPrices(ctx context.Context, p usecase.GetPricesParams) (*usecase.GetPricesResult, error)
}

// ReactionsHandler serves the reaction endpoints.
type ReactionsHandler struct {
	study    StudyService
	prices   PriceService
	store    domrepo.ReactionStore
	cache    icache.BytesCache
	cacheTTL time.Duration
	rl       *ratelimit.Limiter
	l        *applogger.Logger
}

type HandlerOption func(*ReactionsHandler)

// WithStore enables the history endpoint.
func WithStore(s domrepo.ReactionStore) HandlerOption {
	return func(h *ReactionsHandler) { h.store = s }
}

// WithResponseCache caches analysis responses for ttl.
func WithResponseCache(c icache.BytesCache, ttl time.Duration) HandlerOption {
	return func(h *ReactionsHandler) {
		h.cache = c
		h.cacheTTL = ttl
	}
}

func WithRateLimiter(rl *ratelimit.Limiter) HandlerOption {
	return func(h *ReactionsHandler) { h.rl = rl }
}

func NewReactionsHandler(study StudyService, prices PriceService, l *applogger.Logger, opts ...HandlerOption) *ReactionsHandler {
	metrics.Register()
	if l == nil {
		l = applogger.Nop()
	}
	h := &ReactionsHandler{study: study, prices: prices, l: l}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *ReactionsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/reactions", h.limited("reactions", h.Reactions))
	g.GET("/reactions/summary", h.limited("summary", h.Summary))
	g.GET("/reactions/history", h.limited("history", h.History))
	g.GET("/prices", h.limited("prices", h.Prices))
	g.POST("/tickers/refresh", h.limited("refresh", h.RefreshTickers))
}

// limited applies the per-client rate limit and records endpoint latency.
func (h *ReactionsHandler) limited(endpoint string, next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		defer func() { metrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		if h.rl != nil && !h.rl.Allow(c.RealIP()+":"+endpoint) {
			h.l.Warn("rate limited", applogger.String("endpoint", endpoint), applogger.String("remote", c.RealIP()))
			metrics.EndpointErrors.WithLabelValues(endpoint, "rate_limited").Inc()
			return xhttp.TooManyRequestsResponse(c)
		}
		return next(c)
	}
}

// Reactions runs (or serves from cache) a full analysis.
func (h *ReactionsHandler) Reactions(c echo.Context) error {
	res, err := h.analyze(c, "reactions")
	if err != nil {
		return err
	}
	if res == nil {
		return nil
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, res)
}

// Summary is the aggregate part of an analysis.
type Summary struct {
	RunID      string                `json:"run_id"`
	Ticker     string                `json:"ticker"`
	Status     models.AnalysisStatus `json:"status"`
	Horizons   []models.Horizon      `json:"horizons"`
	Events     int                   `json:"events"`
	Skipped    int                   `json:"skipped"`
	Aggregates []models.AggregateRow `json:"aggregates"`
	Extremes   []models.Extremes     `json:"extremes,omitempty"`
}

func (h *ReactionsHandler) Summary(c echo.Context) error {
	res, err := h.analyze(c, "summary")
	if err != nil {
		return err
	}
	if res == nil {
		return nil
	}
	return xhttp.SuccessResponse(c, Summary{
		RunID:      res.RunID,
		Ticker:     res.Ticker,
		Status:     res.Status,
		Horizons:   res.Horizons,
		Events:     res.Events,
		Skipped:    res.Skipped,
		Aggregates: res.Aggregates,
		Extremes:   res.Extremes,
	})
}

// analyze returns a nil result when it has already written an error response.
func (h *ReactionsHandler) analyze(c echo.Context, endpoint string) (*models.AnalysisResult, error) {
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.EndpointErrors.WithLabelValues(endpoint, "validation").Inc()
		return nil, xhttp.BadRequestResponse(c, verr)
	}
	params, err := usecase.ParamsFromRequest(*req)
	if err != nil {
		return nil, h.fail(c, endpoint, err)
	}

	ctx := c.Request().Context()
	key := cacheKey(*req)
	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(ctx, key); err == nil && ok {
			var cached models.AnalysisResult
			if err := json.Unmarshal(b, &cached); err == nil {
				metrics.CacheResults.WithLabelValues(endpoint, "hit").Inc()
				return &cached, nil
			}
		}
		metrics.CacheResults.WithLabelValues(endpoint, "miss").Inc()
	}

	res, err := h.study.Run(ctx, params)
	if err != nil {
		return nil, h.fail(c, endpoint, err)
	}
	if h.cache != nil {
		if b, err := json.Marshal(res); err == nil {
			if err := h.cache.SetBytes(ctx, key, b, h.cacheTTL); err != nil {
				h.l.Warn("response cache set", applogger.String("key", key), applogger.Error(err))
			}
		}
	}
	return res, nil
}

func (h *ReactionsHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.EndpointErrors.WithLabelValues("history", "validation").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.store == nil {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_STORE_DISABLED", "", "reaction store is not configured", http.StatusServiceUnavailable))
	}
	from := util.ParseDateDefault(req.From, time.Time{})
	to := util.ParseDateDefault(req.To, time.Time{})
	if !from.IsZero() && !to.IsZero() {
		from, to = util.AlignFromTo(from, to)
	}

	rows, err := h.store.Query(c.Request().Context(), strings.ToUpper(req.Ticker), from, to, req.Limit)
	if err != nil {
		return h.fail(c, "history", err)
	}
	if rows == nil {
		rows = []models.Reaction{}
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *ReactionsHandler) Prices(c echo.Context) error {
	req := &models.PricesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.EndpointErrors.WithLabelValues("prices", "validation").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.prices.GetPrices(c.Request().Context(), usecase.GetPricesParams{
		Ticker: req.Ticker,
		From:   util.ParseDateDefault(req.From, time.Time{}),
		To:     util.ParseDateDefault(req.To, time.Time{}),
		Limit:  req.Limit,
	})
	if err != nil {
		return h.fail(c, "prices", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ReactionsHandler) RefreshTickers(c echo.Context) error {
	if err := h.study.Invalidate(c.Request().Context()); err != nil {
		return h.fail(c, "refresh", err)
	}
	return xhttp.AcceptedResponse(c, map[string]string{"tickers": "invalidated"})
}

func (h *ReactionsHandler) Health(c echo.Context) error {
	status := map[string]string{"status": "ok"}
	if h.store != nil {
		if err := h.store.Health(c.Request().Context()); err != nil {
			status["status"] = "degraded"
			status["store"] = err.Error()
			return xhttp.DataResponse(c, http.StatusServiceUnavailable, status)
		}
		status["store"] = "ok"
	}
	return xhttp.SuccessResponse(c, status)
}

func (h *ReactionsHandler) fail(c echo.Context, endpoint string, err error) error {
	appErr := toAppError(err)
	metrics.EndpointErrors.WithLabelValues(endpoint, appErr.Code).Inc()
	if appErr.Status >= http.StatusInternalServerError {
		h.l.Error("request failed", applogger.String("endpoint", endpoint), applogger.Error(err))
	} else {
		h.l.Debug("request rejected", applogger.String("endpoint", endpoint), applogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

// toAppError maps domain and transport errors onto HTTP statuses.
func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var statusErr *xhttp.StatusError
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return xhttp.BadRequestErrorf("%s", err.Error()).WithError(err)
	case errors.Is(err, models.ErrUnknownTicker):
		return xhttp.NotFoundErrorf("%s", err.Error()).WithError(err)
	case models.IsMalformed(err):
		return xhttp.MalformedDataError(err.Error()).WithError(err)
	case errors.As(err, &statusErr), errors.Is(err, context.DeadlineExceeded):
		return xhttp.UpstreamError("upstream provider failed").WithError(err)
	default:
		return xhttp.InternalError("Something went wrong").WithError(err)
	}
}

func cacheKey(req models.AnalyzeRequest) string {
	return strings.Join([]string{
		"reactions",
		strings.ToUpper(strings.TrimSpace(req.Ticker)),
		req.Start,
		req.End,
		strconv.Itoa(req.Duration),
		strings.ReplaceAll(req.Horizons, " ", ""),
	}, ":")
}
