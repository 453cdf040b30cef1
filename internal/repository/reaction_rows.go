package repository

import (
	"sort"
	"time"

	"EventPulse/internal/domain/models"
)

// reactionRow is one (reaction, horizon) pair as stored in both SQL backends.
type reactionRow struct {
	RunID       string
	Ticker      string
	EventDate   time.Time
	Category    string
	Description string
	Sentiment   string
	EntryDate   time.Time
	EntryClose  float64
	VolumeRatio float64
	Horizon     int
	Return      *float64
	CreatedAt   time.Time
}

// flatten expands a result into rows, one per reaction and requested horizon.
// Unreachable horizons are kept as NULL returns.
func flatten(res *models.AnalysisResult) []reactionRow {
	out := make([]reactionRow, 0, len(res.Reactions)*len(res.Horizons))
	for _, r := range res.Reactions {
		for _, h := range res.Horizons {
			out = append(out, reactionRow{
				RunID:       res.RunID,
				Ticker:      res.Ticker,
				EventDate:   r.EventDate,
				Category:    r.Category,
				Description: r.Description,
				Sentiment:   r.Sentiment,
				EntryDate:   r.EntryDate,
				EntryClose:  r.EntryClose,
				VolumeRatio: r.VolumeRatio,
				Horizon:     int(h),
				Return:      r.Returns[h],
				CreatedAt:   res.CreatedAt,
			})
		}
	}
	return out
}

type reactionKey struct {
	date        time.Time
	category    string
	description string
}

// assemble folds rows back into reactions. When several runs stored the same
// event, the newest run wins. The result is ascending by event date and keeps
// the most recent limit reactions.
func assemble(rows []reactionRow, limit int) []models.Reaction {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })

	owner := make(map[reactionKey]string)
	byKey := make(map[reactionKey]*models.Reaction)
	for _, row := range rows {
		k := reactionKey{row.EventDate.UTC(), row.Category, row.Description}
		run, seen := owner[k]
		if !seen {
			owner[k] = row.RunID
			byKey[k] = &models.Reaction{
				EventDate:   row.EventDate.UTC(),
				Category:    row.Category,
				Description: row.Description,
				Sentiment:   row.Sentiment,
				EntryDate:   row.EntryDate.UTC(),
				EntryClose:  row.EntryClose,
				VolumeRatio: row.VolumeRatio,
				Returns:     map[models.Horizon]*float64{},
			}
		} else if run != row.RunID {
			continue
		}
		byKey[k].Returns[models.Horizon(row.Horizon)] = row.Return
	}

	out := make([]models.Reaction, 0, len(byKey))
	for _, r := range byKey {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EventDate.Equal(out[j].EventDate) {
			return out[i].EventDate.Before(out[j].EventDate)
		}
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Description < out[j].Description
	})
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
