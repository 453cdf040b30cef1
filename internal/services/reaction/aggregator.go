package reaction

import (
	"sort"

	"EventPulse/internal/domain/models"
)

type groupKey struct {
	category string
	horizon  models.Horizon
}

// Aggregate computes, per (category, horizon), the mean of non-nil returns.
// Pairs without observations are omitted. Rows are sorted by category then horizon.
func Aggregate(reactions []models.Reaction) []models.AggregateRow {
	sums := make(map[groupKey]float64)
	counts := make(map[groupKey]int)
	for _, r := range reactions {
		for h, v := range r.Returns {
			if v == nil {
				continue
			}
			k := groupKey{r.Category, h}
			sums[k] += *v
			counts[k]++
		}
	}
	rows := make([]models.AggregateRow, 0, len(counts))
	for k, n := range counts {
		rows = append(rows, models.AggregateRow{
			Category: k.category,
			Horizon:  k.horizon,
			Mean:     sums[k] / float64(n),
			Count:    n,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Category != rows[j].Category {
			return rows[i].Category < rows[j].Category
		}
		return rows[i].Horizon < rows[j].Horizon
	})
	return rows
}

// BestWorst returns the categories with the highest and lowest mean at horizon.
// Ties go to the lexicographically smaller category. It returns false when no
// category has data for the horizon.
func BestWorst(rows []models.AggregateRow, horizon models.Horizon) (models.Extremes, bool) {
	out := models.Extremes{Horizon: horizon}
	found := false
	for _, r := range rows {
		if r.Horizon != horizon {
			continue
		}
		if !found {
			out.BestCategory, out.BestValue = r.Category, r.Mean
			out.WorstCategory, out.WorstValue = r.Category, r.Mean
			found = true
			continue
		}
		if r.Mean > out.BestValue || (r.Mean == out.BestValue && r.Category < out.BestCategory) {
			out.BestCategory, out.BestValue = r.Category, r.Mean
		}
		if r.Mean < out.WorstValue || (r.Mean == out.WorstValue && r.Category < out.WorstCategory) {
			out.WorstCategory, out.WorstValue = r.Category, r.Mean
		}
	}
	return out, found
}

// AllExtremes returns BestWorst for each horizon that has data.
func AllExtremes(rows []models.AggregateRow, horizons []models.Horizon) []models.Extremes {
	var out []models.Extremes
	for _, h := range horizons {
		if e, ok := BestWorst(rows, h); ok {
			out = append(out, e)
		}
	}
	return out
}
