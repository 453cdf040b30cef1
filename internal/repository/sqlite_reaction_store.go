package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"EventPulse/internal/domain/models"
	domrepo "EventPulse/internal/domain/repository"
	applogger "EventPulse/pkg/logger"
	"EventPulse/pkg/util"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS event_reactions (
	run_id       TEXT    NOT NULL,
	ticker       TEXT    NOT NULL,
	event_date   TEXT    NOT NULL,
	category     TEXT    NOT NULL,
	description  TEXT    NOT NULL,
	sentiment    TEXT    NOT NULL DEFAULT '',
	entry_date   TEXT    NOT NULL,
	entry_close  REAL    NOT NULL,
	volume_ratio REAL    NOT NULL,
	horizon      INTEGER NOT NULL,
	ret          REAL,
	created_at   INTEGER NOT NULL,
	PRIMARY KEY (ticker, event_date, category, description, horizon)
);
CREATE INDEX IF NOT EXISTS idx_event_reactions_run ON event_reactions (run_id);
`

// SQLiteReactionStore implements ReactionStore on a local SQLite file.
type SQLiteReactionStore struct {
	db   *sql.DB
	path string
	l    *applogger.Logger
}

// NewSQLiteReactionStore opens (and creates) the database at path in WAL mode.
func NewSQLiteReactionStore(path string, l *applogger.Logger) (*SQLiteReactionStore, error) {
	if l == nil {
		l = applogger.Nop()
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer; WAL lets readers proceed
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return &SQLiteReactionStore{db: db, path: path, l: l}, nil
}

var _ domrepo.ReactionStore = (*SQLiteReactionStore)(nil)

func (s *SQLiteReactionStore) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("sqlite schema: %w", err)
	}
	s.l.Info("sqlite reaction store ready", applogger.String("path", s.path))
	return nil
}

// Store upserts every (reaction, horizon) row of res in one transaction.
func (s *SQLiteReactionStore) Store(ctx context.Context, res *models.AnalysisResult) error {
	rows := flatten(res)
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO event_reactions (run_id, ticker, event_date, category, description, sentiment,
			entry_date, entry_close, volume_ratio, horizon, ret, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i, r := range rows {
		var ret any
		if r.Return != nil {
			ret = *r.Return
		}
		if _, err := stmt.ExecContext(ctx,
			r.RunID, r.Ticker, util.FormatDate(r.EventDate), r.Category, r.Description, r.Sentiment,
			util.FormatDate(r.EntryDate), r.EntryClose, r.VolumeRatio, r.Horizon, ret, r.CreatedAt.UnixMilli(),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Query returns persisted reactions for ticker with event dates in [from, to]. Zero bounds are open.
func (s *SQLiteReactionStore) Query(ctx context.Context, ticker string, from, to time.Time, limit int) ([]models.Reaction, error) {
	lo, hi := "0000-01-01", "9999-12-31"
	if !from.IsZero() {
		lo = util.FormatDate(from)
	}
	if !to.IsZero() {
		hi = util.FormatDate(to)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, ticker, event_date, category, description, sentiment,
		       entry_date, entry_close, volume_ratio, horizon, ret, created_at
		FROM event_reactions
		WHERE ticker = ? AND event_date >= ? AND event_date <= ?
		ORDER BY event_date ASC`, ticker, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("query reactions: %w", err)
	}
	defer rows.Close()

	var out []reactionRow
	for rows.Next() {
		var (
			r                   reactionRow
			eventDate, entryDay string
			ret                 sql.NullFloat64
			created             int64
		)
		if err := rows.Scan(&r.RunID, &r.Ticker, &eventDate, &r.Category, &r.Description, &r.Sentiment,
			&entryDay, &r.EntryClose, &r.VolumeRatio, &r.Horizon, &ret, &created); err != nil {
			return nil, fmt.Errorf("scan reaction: %w", err)
		}
		if r.EventDate, err = time.Parse(util.DateLayout, eventDate); err != nil {
			return nil, fmt.Errorf("event_date %q: %w", eventDate, err)
		}
		if r.EntryDate, err = time.Parse(util.DateLayout, entryDay); err != nil {
			return nil, fmt.Errorf("entry_date %q: %w", entryDay, err)
		}
		if ret.Valid {
			v := ret.Float64
			r.Return = &v
		}
		r.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return assemble(out, limit), nil
}

func (s *SQLiteReactionStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteReactionStore) Close() error {
	return s.db.Close()
}
