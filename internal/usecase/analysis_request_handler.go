package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"EventPulse/internal/domain/models"
	domrepo "EventPulse/internal/domain/repository"
	xhttp "EventPulse/pkg/http"
	pkgkafka "EventPulse/pkg/kafka"
)

// StudyRunner runs one event study.
type StudyRunner interface {
	Run(ctx context.Context, p StudyParams) (*models.AnalysisResult, error)
}

// AnalysisRequestHandler consumes analysis requests from Kafka and runs them.
// Results leave through the study's sink.
type AnalysisRequestHandler struct {
	topic   string
	study   StudyRunner
	metrics domrepo.Metrics
}

func NewAnalysisRequestHandler(topic string, study StudyRunner, metrics domrepo.Metrics) *AnalysisRequestHandler {
	return &AnalysisRequestHandler{topic: topic, study: study, metrics: metrics}
}

func (h *AnalysisRequestHandler) Topic() string { return h.topic }

// incoming message schema: models.AnalyzeRequest as JSON
func (h *AnalysisRequestHandler) Handle(ctx context.Context, b []byte) error {
	var req models.AnalyzeRequest
	if err := json.Unmarshal(b, &req); err != nil {
		h.recordError("consumer_unmarshal")
		return pkgkafka.Permanent(fmt.Errorf("decode analysis request: %w", err))
	}
	if verrs := xhttp.ValidateStruct(&req); len(verrs) > 0 {
		h.recordError("consumer_validate")
		return pkgkafka.Permanent(fmt.Errorf("invalid analysis request: %s", verrs[0].Message))
	}
	params, err := ParamsFromRequest(req)
	if err != nil {
		h.recordError("consumer_validate")
		return pkgkafka.Permanent(err)
	}

	start := time.Now()
	_, err = h.study.Run(ctx, params)
	if h.metrics != nil {
		h.metrics.RecordLatency("consumer_run", time.Since(start).Seconds())
	}
	if err != nil {
		h.recordError("consumer_run")
		// retrying cannot fix bad input or bad upstream data
		if errors.Is(err, models.ErrUnknownTicker) || errors.Is(err, models.ErrInvalidInput) || models.IsMalformed(err) {
			return pkgkafka.Permanent(err)
		}
		return err
	}
	return nil
}

func (h *AnalysisRequestHandler) recordError(kind string) {
	if h.metrics != nil {
		h.metrics.RecordError(kind)
	}
}

var _ pkgkafka.MessageHandler = (*AnalysisRequestHandler)(nil)
