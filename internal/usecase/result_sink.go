package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"EventPulse/internal/domain/models"
	drepo "EventPulse/internal/domain/repository"
	"EventPulse/pkg/logger"
)

// ResultSink persists and fans out finished analysis runs. Either backend may be nil.
type ResultSink struct {
	pub     drepo.Publisher
	store   drepo.ReactionStore
	metrics drepo.Metrics
	log     *logger.Logger
}

func NewResultSink(pub drepo.Publisher, store drepo.ReactionStore, metrics drepo.Metrics, log *logger.Logger) *ResultSink {
	if log == nil {
		log = logger.Nop()
	}
	return &ResultSink{pub: pub, store: store, metrics: metrics, log: log}
}

// Enabled reports whether any backend is configured.
func (s *ResultSink) Enabled() bool {
	return s != nil && (s.pub != nil || s.store != nil)
}

// Process stores and publishes res. Runs without reactions are published but not stored.
// Both backends are attempted; their errors are joined.
func (s *ResultSink) Process(ctx context.Context, res *models.AnalysisResult) error {
	if res == nil {
		return fmt.Errorf("result is nil")
	}
	if !s.Enabled() {
		return nil
	}

	var errs []error
	if s.store != nil && len(res.Reactions) > 0 {
		start := time.Now()
		if err := s.store.Store(ctx, res); err != nil {
			s.recordError("sink_store")
			errs = append(errs, fmt.Errorf("store run %s: %w", res.RunID, err))
		} else {
			s.recordLatency("sink_store", time.Since(start))
		}
	}
	if s.pub != nil {
		start := time.Now()
		if err := s.pub.Publish(ctx, res); err != nil {
			s.recordError("sink_publish")
			errs = append(errs, fmt.Errorf("publish run %s: %w", res.RunID, err))
		} else {
			s.recordLatency("sink_publish", time.Since(start))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	s.log.Debug("run delivered", logger.String("run_id", res.RunID), logger.String("ticker", res.Ticker))
	return nil
}

// Close closes underlying resources if available.
func (s *ResultSink) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.pub != nil {
		errs = append(errs, s.pub.Close())
	}
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	return errors.Join(errs...)
}

func (s *ResultSink) recordError(kind string) {
	if s.metrics != nil {
		s.metrics.RecordError(kind)
	}
}

func (s *ResultSink) recordLatency(stage string, d time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordLatency(stage, d.Seconds())
	}
}
