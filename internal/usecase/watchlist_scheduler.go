package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"EventPulse/pkg/logger"
)

// Locker guards a scheduled run across instances. pkg/cache services satisfy it.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// WatchlistScheduler runs the event study for a fixed list of tickers on a cron schedule.
type WatchlistScheduler struct {
	study   StudyRunner
	lock    Locker
	tickers []string
	timeout time.Duration
	cron    *cron.Cron
	log     *logger.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	running sync.WaitGroup
}

func NewWatchlistScheduler(study StudyRunner, lock Locker, tickers []string, log *logger.Logger) *WatchlistScheduler {
	if log == nil {
		log = logger.Nop()
	}
	norm := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			norm = append(norm, t)
		}
	}
	return &WatchlistScheduler{
		study:   study,
		lock:    lock,
		tickers: norm,
		timeout: 10 * time.Minute,
		cron:    cron.New(),
		log:     log,
	}
}

// Start registers schedule (standard 5-field cron) and starts the cron loop.
func (s *WatchlistScheduler) Start(schedule string) error {
	if len(s.tickers) == 0 {
		return fmt.Errorf("watchlist is empty")
	}
	if schedule == "" {
		schedule = "30 22 * * 1-5"
	}
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.mu.Unlock()

	if _, err := s.cron.AddFunc(schedule, func() { s.RunOnce(s.context()) }); err != nil {
		return fmt.Errorf("watchlist schedule %q: %w", schedule, err)
	}
	s.cron.Start()
	s.log.Info("watchlist scheduler started", logger.String("schedule", schedule), logger.Strings("tickers", s.tickers))
	return nil
}

// Stop halts the cron loop and waits for an in-flight run, bounded by ctx.
func (s *WatchlistScheduler) Stop(ctx context.Context) error {
	stopped := s.cron.Stop()
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		<-stopped.Done()
		s.running.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.log.Info("watchlist scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce analyses every ticker once. It returns the number of successful runs.
// When another instance holds the lock the run is skipped.
func (s *WatchlistScheduler) RunOnce(ctx context.Context) int {
	s.running.Add(1)
	defer s.running.Done()

	if s.lock != nil {
		ok, err := s.lock.TryLock(ctx, "lock:watchlist", s.timeout)
		if err != nil {
			s.log.Error("watchlist lock", logger.Error(err))
			return 0
		}
		if !ok {
			s.log.Debug("watchlist run already in progress")
			return 0
		}
		defer func() { _ = s.lock.Unlock(context.WithoutCancel(ctx), "lock:watchlist") }()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := 0
	for _, t := range s.tickers {
		if ctx.Err() != nil {
			break
		}
		res, err := s.study.Run(ctx, StudyParams{Ticker: t})
		if err != nil {
			s.log.Error("watchlist analysis failed", logger.String("ticker", t), logger.Error(err))
			continue
		}
		done++
		s.log.Info("watchlist analysis done",
			logger.String("ticker", t),
			logger.String("status", string(res.Status)),
			logger.Int("reactions", len(res.Reactions)),
		)
	}
	return done
}

func (s *WatchlistScheduler) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}
