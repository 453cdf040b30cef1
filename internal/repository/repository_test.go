package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EventPulse/internal/domain/models"
)

func f64(v float64) *float64 { return &v }

func day(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
}

func runResult(runID string, created time.Time, r1 float64) *models.AnalysisResult {
	return &models.AnalysisResult{
		RunID:     runID,
		Ticker:    "ACME",
		Horizons:  []models.Horizon{1, 5},
		Status:    models.StatusOK,
		CreatedAt: created,
		Reactions: []models.Reaction{
			{
				EventDate:   day(1, 6),
				Category:    "Material Event: Earnings Release",
				Description: "Item 2.02",
				Sentiment:   "Positive",
				EntryDate:   day(1, 8),
				EntryClose:  105,
				VolumeRatio: 2,
				Returns:     map[models.Horizon]*float64{1: f64(r1), 5: nil},
			},
			{
				EventDate:   day(2, 1),
				Category:    "Quarterly Financial Report",
				Description: "10-Q",
				EntryDate:   day(2, 1),
				EntryClose:  120,
				VolumeRatio: 1,
				Returns:     map[models.Horizon]*float64{1: f64(-0.5), 5: f64(1.25)},
			},
		},
	}
}

func TestFlattenKeepsNullHorizons(t *testing.T) {
	rows := flatten(runResult("r1", day(3, 1), 0.95))
	require.Len(t, rows, 4)
	assert.Equal(t, 1, rows[0].Horizon)
	assert.Nil(t, rows[1].Return)
	assert.Equal(t, "ACME", rows[3].Ticker)
}

func TestAssembleNewestRunWins(t *testing.T) {
	rows := append(flatten(runResult("old", day(3, 1), 0.5)), flatten(runResult("new", day(3, 2), 0.95))...)

	got := assemble(rows, 0)
	require.Len(t, got, 2)
	v, ok := got[0].Return(1)
	require.True(t, ok)
	assert.Equal(t, 0.95, v)
	_, ok = got[0].Return(5)
	assert.False(t, ok)
	assert.Equal(t, day(2, 1), got[1].EventDate)
}

func TestAssembleLimitKeepsMostRecent(t *testing.T) {
	got := assemble(flatten(runResult("r", day(3, 1), 1)), 1)
	require.Len(t, got, 1)
	assert.Equal(t, "Quarterly Financial Report", got[0].Category)
}

func TestToEvent(t *testing.T) {
	res := runResult("r", day(3, 1), 1)
	res.From, res.To = day(1, 1), day(2, 29)
	ev := toEvent(res)
	assert.Equal(t, "2024-01-01", ev.From)
	assert.Equal(t, "2024-02-29", ev.To)
	assert.Equal(t, "ok", ev.Status)
	assert.Equal(t, day(3, 1).UnixMilli(), ev.CreatedAt)
	assert.Len(t, ev.Reactions, 2)
}

func TestSQLiteReactionStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteReactionStore(filepath.Join(t.TempDir(), "db", "reactions.db"), nil)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Init(ctx))
	require.NoError(t, store.Health(ctx))

	require.NoError(t, store.Store(ctx, runResult("old", day(3, 1), 0.5)))
	require.NoError(t, store.Store(ctx, runResult("new", day(3, 2), 0.95)))

	got, err := store.Query(ctx, "ACME", time.Time{}, time.Time{}, 100)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, day(1, 6), got[0].EventDate)
	assert.Equal(t, day(1, 8), got[0].EntryDate)
	assert.Equal(t, "Positive", got[0].Sentiment)
	assert.Equal(t, 2.0, got[0].VolumeRatio)
	v, ok := got[0].Return(1)
	require.True(t, ok)
	assert.Equal(t, 0.95, v)
	_, ok = got[0].Return(5)
	assert.False(t, ok)

	got, err = store.Query(ctx, "ACME", day(1, 15), day(2, 15), 100)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Quarterly Financial Report", got[0].Category)

	got, err = store.Query(ctx, "OTHER", time.Time{}, time.Time{}, 100)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLiteStoreEmptyResult(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteReactionStore(filepath.Join(t.TempDir(), "r.db"), nil)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Init(ctx))

	assert.NoError(t, store.Store(ctx, &models.AnalysisResult{RunID: "x", Ticker: "ACME"}))
}
