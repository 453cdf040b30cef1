package di

import (
	"context"
	"fmt"
	"time"

	"EventPulse/internal/domain/repository"
	domsvc "EventPulse/internal/domain/service"
	"EventPulse/internal/handler/api"
	mid "EventPulse/internal/middleware"
	internalrepo "EventPulse/internal/repository"
	"EventPulse/internal/service/alphavantage"
	icache "EventPulse/internal/service/cache"
	"EventPulse/internal/service/ratelimit"
	"EventPulse/internal/service/sec"
	"EventPulse/internal/services/classifier"
	"EventPulse/internal/services/reaction"
	"EventPulse/internal/services/sentiment"
	"EventPulse/internal/usecase"
	pkgcache "EventPulse/pkg/cache"
	pkgch "EventPulse/pkg/clickhouse"
	"EventPulse/pkg/config"
	xhttp "EventPulse/pkg/http"
	pkgkafka "EventPulse/pkg/kafka"
	applogger "EventPulse/pkg/logger"
	"EventPulse/pkg/metrics"
	"EventPulse/pkg/server"
)

// ProvideLogger builds the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRedis connects to Redis when enabled. It returns nil otherwise.
func ProvideRedis(cfg *config.Config) (*pkgcache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisAddr(cfg.Redis.Addr),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix("eventpulse"),
	)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return rc, nil
}

// ProvideCache returns the provider cache: memory only, or memory in front of Redis.
func ProvideCache(rc *pkgcache.RedisCache) pkgcache.Service {
	if rc == nil {
		return pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(2000), pkgcache.WithMemoryCleanup(time.Minute))
	}
	return pkgcache.NewLayeredCache(rc,
		pkgcache.WithLayeredMemorySize(1000),
		pkgcache.WithLayeredMemoryTTL(5*time.Minute),
	)
}

// ProvideResponseCache returns the HTTP response cache.
func ProvideResponseCache(rc *pkgcache.RedisCache) icache.BytesCache {
	if rc == nil {
		return icache.NewTTLCache(512)
	}
	return icache.NewRedisCache(rc.Client(), "eventpulse:resp")
}

// ProvidePriceSource creates the Alpha Vantage client.
func ProvidePriceSource(cfg *config.Config, cache pkgcache.Service, l *applogger.Logger) *alphavantage.Client {
	rps := cfg.AlphaVantage.RateLimit
	if rps <= 0 {
		rps = 0.2
	}
	timeout := cfg.AlphaVantage.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return alphavantage.NewClient(cfg.AlphaVantage.APIKey,
		alphavantage.WithBaseURL(cfg.AlphaVantage.BaseURL),
		alphavantage.WithOutputSize(cfg.AlphaVantage.OutputSize),
		alphavantage.WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(timeout), xhttp.WithRateLimit(rps, 1))),
		alphavantage.WithCache(cache, cfg.CacheTTL.Prices),
		alphavantage.WithLogger(l),
	)
}

// ProvideSECClient creates the EDGAR client used for ticker resolution and filings.
func ProvideSECClient(cfg *config.Config, cache pkgcache.Service, l *applogger.Logger) (*sec.Client, error) {
	timeout := cfg.SEC.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c, err := sec.NewClient(cfg.SEC.UserAgent, cache,
		sec.WithTickersURL(cfg.SEC.TickersURL),
		sec.WithSubmissionsURL(cfg.SEC.SubmissionsURL),
		sec.WithHTTPClient(xhttp.NewClient(
			xhttp.WithTimeout(timeout),
			xhttp.WithUserAgent(cfg.SEC.UserAgent),
			xhttp.WithRateLimit(cfg.SEC.RateLimit, 1),
		)),
		sec.WithTTL(cfg.CacheTTL.Tickers, cfg.CacheTTL.Filings),
		sec.WithLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("sec client: %w", err)
	}
	return c, nil
}

// ProvideSentiment builds the configured labeller behind a rate limiter and breaker.
// It returns nil for provider "none".
func ProvideSentiment(cfg *config.Config, m repository.Metrics) (domsvc.SentimentClassifier, error) {
	var next domsvc.SentimentClassifier
	switch cfg.Sentiment.Provider {
	case "claude":
		c, err := sentiment.NewClaudeClassifier(cfg.Sentiment.APIKey, cfg.Sentiment.Model, cfg.Sentiment.MaxTokens)
		if err != nil {
			return nil, fmt.Errorf("sentiment: %w", err)
		}
		next = c
	case "http":
		next = sentiment.NewHTTPClassifier(cfg.Sentiment.ServiceURL, cfg.Sentiment.Timeout, cfg.Sentiment.Attempts)
	default:
		return nil, nil
	}

	opts := []mid.GuardOption{}
	if cfg.Sentiment.RateLimit > 0 {
		opts = append(opts, mid.WithRate(cfg.Sentiment.RateLimit, 1))
	}
	if cfg.Sentiment.Timeout > 0 {
		opts = append(opts, mid.WithCallTimeout(cfg.Sentiment.Timeout))
	}
	return mid.NewClassifierGuard(next, m, opts...), nil
}

// ProvideAnalyzer creates the reaction analyzer.
func ProvideAnalyzer(cfg *config.Config, cls domsvc.SentimentClassifier, m repository.Metrics, l *applogger.Logger) *usecase.Analyzer {
	comp := reaction.NewComputer(repository.NormalizeHorizonMode(cfg.Analysis.HorizonMode))
	comp.VolumeWindow = cfg.Analysis.VolumeWindow

	opts := []usecase.AnalyzerOption{
		usecase.WithWorkers(cfg.Analysis.Workers),
		usecase.WithRecentDays(cfg.Analysis.RecentDays),
	}
	if cls != nil {
		opts = append(opts, usecase.WithSentiment(cls))
	}
	return usecase.NewAnalyzer(classifier.New(cfg.Analysis.Exclusions), comp, m, l, opts...)
}

// ProvideClickHouseClient creates a ClickHouse client when the clickhouse store is selected.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Store.Type != "clickhouse" {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideReactionStore opens the configured store and ensures its schema.
// It returns nil for store type "none".
func ProvideReactionStore(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) (repository.ReactionStore, error) {
	var store repository.ReactionStore
	switch cfg.Store.Type {
	case "clickhouse":
		store = internalrepo.NewCHReactionStore(ch, l)
	case "sqlite":
		s, err := internalrepo.NewSQLiteReactionStore(cfg.SQLite.Path, l)
		if err != nil {
			return nil, fmt.Errorf("sqlite store: %w", err)
		}
		store = s
	default:
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("%s schema: %w", cfg.Store.Type, err)
	}
	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer when Kafka is enabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	acks := cfg.Kafka.RequiredAcks
	if acks == 0 {
		acks = -1
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(acks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePublisher creates the Kafka result publisher, or nil without a producer.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates the analysis request consumer when Kafka is enabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideResultSink wires the publisher and store behind the study.
func ProvideResultSink(pub repository.Publisher, store repository.ReactionStore, m repository.Metrics, l *applogger.Logger) *usecase.ResultSink {
	return usecase.NewResultSink(pub, store, m, l)
}

// ProvideEventStudy creates the end-to-end study use case.
func ProvideEventStudy(
	cfg *config.Config,
	prices *alphavantage.Client,
	edgar *sec.Client,
	analyzer *usecase.Analyzer,
	sink *usecase.ResultSink,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.EventStudy {
	return usecase.NewEventStudy(prices, edgar, edgar, analyzer, sink, usecase.StudyDefaults{
		Horizons:     cfg.Analysis.Horizons,
		Duration:     cfg.Analysis.Duration,
		LookbackDays: cfg.Analysis.LookbackDays,
		Exclusions:   cfg.Analysis.Exclusions,
	}, m, l)
}

// ProvidePriceHistory creates the price listing use case.
func ProvidePriceHistory(prices *alphavantage.Client) *usecase.PriceHistoryUseCase {
	return usecase.NewPriceHistoryUseCase(prices)
}

// ProvideAnalysisRequestHandler registers the handler for the request topic.
func ProvideAnalysisRequestHandler(cfg *config.Config, study *usecase.EventStudy, m repository.Metrics) *usecase.AnalysisRequestHandler {
	return usecase.NewAnalysisRequestHandler(cfg.Kafka.RequestTopic, study, m)
}

// ProvideWatchlistScheduler creates the scheduler when the watchlist is enabled.
func ProvideWatchlistScheduler(cfg *config.Config, study *usecase.EventStudy, cache pkgcache.Service, l *applogger.Logger) *usecase.WatchlistScheduler {
	if !cfg.Watchlist.Enabled {
		return nil
	}
	return usecase.NewWatchlistScheduler(study, cache, cfg.Watchlist.Tickers, l)
}

// ProvideHTTPHandler creates the REST handler.
func ProvideHTTPHandler(
	cfg *config.Config,
	study *usecase.EventStudy,
	prices *usecase.PriceHistoryUseCase,
	store repository.ReactionStore,
	responses icache.BytesCache,
	l *applogger.Logger,
) *api.ReactionsHandler {
	opts := []api.HandlerOption{
		api.WithResponseCache(responses, cfg.CacheTTL.Responses),
		api.WithRateLimiter(ratelimit.New(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)),
	}
	if store != nil {
		opts = append(opts, api.WithStore(store))
	}
	return api.NewReactionsHandler(study, prices, l, opts...)
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, h *api.ReactionsHandler, l *applogger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(h,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	requests *usecase.AnalysisRequestHandler,
	scheduler *usecase.WatchlistScheduler,
	sink *usecase.ResultSink,
	cache pkgcache.Service,
	ch *pkgch.Client,
) *server.App {
	opts := []server.Option{
		server.WithCloser("sink", sink.Close),
		// a layered cache also closes the shared redis client
		server.WithCloser("cache", cache.Close),
	}
	if ch != nil {
		opts = append(opts, server.WithCloser("clickhouse", ch.Close))
	}
	if consumer != nil {
		opts = append(opts, server.WithConsumer(consumer, requests))
	}
	if scheduler != nil {
		opts = append(opts, server.WithScheduler(scheduler))
	}
	return server.New(cfg, l, httpServer, opts...)
}
