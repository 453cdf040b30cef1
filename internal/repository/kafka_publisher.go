package repository

import (
	"context"

	"EventPulse/internal/domain/models"
	"EventPulse/internal/domain/repository"
	pkgkafka "EventPulse/pkg/kafka"
	"EventPulse/pkg/util"
)

// KafkaPublisher implements Publisher for Kafka. Runs are keyed by ticker so
// consumers see one ticker's runs in order.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

var _ repository.Publisher = (*KafkaPublisher)(nil)

// reactionEvent is the wire form of one run.
type reactionEvent struct {
	RunID      string                `json:"run_id"`
	Ticker     string                `json:"ticker"`
	From       string                `json:"from"`
	To         string                `json:"to"`
	Status     string                `json:"status"`
	Horizons   []models.Horizon      `json:"horizons"`
	Events     int                   `json:"events"`
	Skipped    int                   `json:"skipped"`
	Reactions  []models.Reaction     `json:"reactions"`
	Aggregates []models.AggregateRow `json:"aggregates"`
	Extremes   []models.Extremes     `json:"extremes,omitempty"`
	CreatedAt  int64                 `json:"created_at"`
}

func toEvent(res *models.AnalysisResult) reactionEvent {
	ev := reactionEvent{
		RunID:      res.RunID,
		Ticker:     res.Ticker,
		Status:     string(res.Status),
		Horizons:   res.Horizons,
		Events:     res.Events,
		Skipped:    res.Skipped,
		Reactions:  res.Reactions,
		Aggregates: res.Aggregates,
		Extremes:   res.Extremes,
		CreatedAt:  res.CreatedAt.UnixMilli(),
	}
	if !res.From.IsZero() {
		ev.From = util.FormatDate(res.From)
	}
	if !res.To.IsZero() {
		ev.To = util.FormatDate(res.To)
	}
	return ev
}

func (p *KafkaPublisher) Publish(ctx context.Context, res *models.AnalysisResult) error {
	return p.producer.Publish(ctx, p.topic, []byte(res.Ticker), toEvent(res))
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
