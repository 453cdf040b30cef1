package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"EventPulse/internal/domain/models"
	domrepo "EventPulse/internal/domain/repository"
	pkgch "EventPulse/pkg/clickhouse"
	applogger "EventPulse/pkg/logger"
)

const chReactionsTable = "event_reactions"

var chSchema = []string{`
	CREATE TABLE IF NOT EXISTS event_reactions (
		run_id       String,
		ticker       LowCardinality(String),
		event_date   Date,
		category     LowCardinality(String),
		description  String,
		sentiment    LowCardinality(String),
		entry_date   Date,
		entry_close  Float64,
		volume_ratio Float64,
		horizon      UInt16,
		ret          Nullable(Float64),
		created_at   DateTime64(3, 'UTC')
	)
	ENGINE = ReplacingMergeTree(created_at)
	PARTITION BY toYYYYMM(event_date)
	ORDER BY (ticker, event_date, category, description, horizon)
`}

// CHReactionStore implements ReactionStore backed by ClickHouse.
type CHReactionStore struct {
	ch *pkgch.Client
	db *sql.DB
	l  *applogger.Logger
}

func NewCHReactionStore(ch *pkgch.Client, l *applogger.Logger) *CHReactionStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHReactionStore{ch: ch, db: ch.DB(), l: l}
}

var _ domrepo.ReactionStore = (*CHReactionStore)(nil)

func (s *CHReactionStore) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, chSchema)
}

func (s *CHReactionStore) Store(ctx context.Context, res *models.AnalysisResult) error {
	rows := flatten(res)
	if len(rows) == 0 {
		return nil
	}
	args := make([][]any, 0, len(rows))
	for _, r := range rows {
		var ret any
		if r.Return != nil {
			ret = *r.Return
		}
		args = append(args, []any{
			r.RunID, r.Ticker, r.EventDate, r.Category, r.Description, r.Sentiment,
			r.EntryDate, r.EntryClose, r.VolumeRatio, uint16(r.Horizon), ret, r.CreatedAt,
		})
	}
	q := fmt.Sprintf(`INSERT INTO %s (run_id, ticker, event_date, category, description, sentiment,
		entry_date, entry_close, volume_ratio, horizon, ret, created_at)`, chReactionsTable)

	start := time.Now()
	if err := s.ch.InsertBatch(ctx, q, args); err != nil {
		s.l.Error("clickhouse store reactions",
			applogger.String("ticker", res.Ticker),
			applogger.String("run_id", res.RunID),
			applogger.Int("rows", len(args)),
			applogger.Error(err),
		)
		return fmt.Errorf("store reactions: %w", err)
	}
	s.l.Debug("clickhouse stored reactions",
		applogger.String("ticker", res.Ticker),
		applogger.Int("rows", len(args)),
		applogger.Duration("took", time.Since(start)),
	)
	return nil
}

// Query returns persisted reactions for ticker with event dates in [from, to]. Zero bounds are open.
func (s *CHReactionStore) Query(ctx context.Context, ticker string, from, to time.Time, limit int) ([]models.Reaction, error) {
	if to.IsZero() {
		to = time.Date(2200, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	q := fmt.Sprintf(`
		SELECT run_id, ticker, event_date, category, description, sentiment,
		       entry_date, entry_close, volume_ratio, horizon, ret, created_at
		FROM %s FINAL
		WHERE ticker = ? AND event_date >= ? AND event_date <= ?
		ORDER BY event_date ASC, created_at DESC
	`, chReactionsTable)
	rows, err := s.db.QueryContext(ctx, q, ticker, from, to)
	if err != nil {
		s.l.Error("clickhouse query reactions", applogger.String("ticker", ticker), applogger.Error(err))
		return nil, fmt.Errorf("query reactions: %w", err)
	}
	defer rows.Close()

	var out []reactionRow
	for rows.Next() {
		var (
			r   reactionRow
			h   uint16
			ret sql.NullFloat64
		)
		if err := rows.Scan(&r.RunID, &r.Ticker, &r.EventDate, &r.Category, &r.Description, &r.Sentiment,
			&r.EntryDate, &r.EntryClose, &r.VolumeRatio, &h, &ret, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reaction: %w", err)
		}
		r.Horizon = int(h)
		if ret.Valid {
			v := ret.Float64
			r.Return = &v
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return assemble(out, limit), nil
}

func (s *CHReactionStore) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

func (s *CHReactionStore) Close() error {
	return nil // client is closed by its owner
}
