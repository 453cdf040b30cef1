package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"EventPulse/internal/usecase"
	"EventPulse/pkg/config"
	xhttp "EventPulse/pkg/http"
	pkgkafka "EventPulse/pkg/kafka"
	applogger "EventPulse/pkg/logger"
)

type closer struct {
	name string
	fn   func() error
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
	requests   pkgkafka.MessageHandler
	scheduler  *usecase.WatchlistScheduler
	closers    []closer
}

type Option func(*App)

// WithConsumer attaches the analysis request consumer.
func WithConsumer(c *pkgkafka.Consumer, h pkgkafka.MessageHandler) Option {
	return func(a *App) {
		a.consumer = c
		a.requests = h
	}
}

// WithScheduler attaches the watchlist scheduler.
func WithScheduler(s *usecase.WatchlistScheduler) Option {
	return func(a *App) { a.scheduler = s }
}

// WithCloser registers fn to run on shutdown. Closers run in reverse order.
func WithCloser(name string, fn func() error) Option {
	return func(a *App) {
		if fn != nil {
			a.closers = append(a.closers, closer{name: name, fn: fn})
		}
	}
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, log *applogger.Logger, httpServer *xhttp.Server, opts ...Option) *App {
	if log == nil {
		log = applogger.Nop()
	}
	a := &App{cfg: cfg, log: log, httpServer: httpServer}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	if err := a.start(); err != nil {
		a.shutdown(context.Background())
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	a.shutdown(context.Background())
	return nil
}

func (a *App) start() error {
	if a.consumer != nil && a.requests != nil {
		a.consumer.RegisterHandler(a.requests)
		if err := a.consumer.Start(); err != nil {
			a.log.Error("kafka consumer start error", applogger.Error(err))
			return err
		}
		a.log.Info("kafka consumer started", applogger.String("topic", a.requests.Topic()))
	}

	if a.scheduler != nil {
		if err := a.scheduler.Start(a.cfg.Watchlist.Schedule); err != nil {
			a.log.Error("watchlist scheduler start error", applogger.Error(err))
			return err
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	return nil
}

// shutdown stops inbound work first, then releases infrastructure clients.
func (a *App) shutdown(ctx context.Context) {
	a.log.Info("shutting down...")

	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.scheduler != nil {
		if err := a.scheduler.Stop(ctx); err != nil {
			a.log.Warn("watchlist scheduler stop error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(); err != nil {
			a.log.Warn("close error", applogger.String("component", c.name), applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
}
