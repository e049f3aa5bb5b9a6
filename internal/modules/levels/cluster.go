package levels

import (
	"math"
	"sort"

	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/domain"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/pkg/formulas"
)

// Cluster merges nearby levels into zones.
//
// Candidates are sorted by value and grouped greedily while the gap to the group's
// first member is within tolerance. A multi-member group becomes one level whose value
// is the integer-truncated touch-weighted average, carrying the first member's
// moving-average flag. Passes repeat until no two adjacent levels are within
// tolerance, so the result is closed under clustering.
func Cluster(candidates []domain.Level, tolerance float64) []domain.Level {
	if len(candidates) == 0 {
		return nil
	}
	if tolerance < 0 {
		tolerance = 0
	}

	current := make([]domain.Level, len(candidates))
	copy(current, candidates)
	for i := range current {
		if current[i].Touches < 1 {
			current[i].Touches = 1
		}
	}
	sortLevels(current)

	for {
		merged, changed := clusterPass(current, tolerance)
		current = merged
		if !changed {
			return current
		}
	}
}

func clusterPass(sorted []domain.Level, tolerance float64) ([]domain.Level, bool) {
	out := make([]domain.Level, 0, len(sorted))
	changed := false

	for i := 0; i < len(sorted); {
		j := i + 1
		for j < len(sorted) && sorted[j].Value-sorted[i].Value <= tolerance {
			j++
		}

		if j-i == 1 {
			out = append(out, sorted[i])
		} else {
			out = append(out, mergeGroup(sorted[i:j]))
			changed = true
		}
		i = j
	}

	sortLevels(out)
	return out, changed
}

func mergeGroup(group []domain.Level) domain.Level {
	values := make([]float64, len(group))
	weights := make([]float64, len(group))
	touches := 0
	for k, l := range group {
		values[k] = l.Value
		weights[k] = float64(l.Touches)
		touches += l.Touches
	}

	first := group[0]
	return domain.Level{
		Timeframe:                  first.Timeframe,
		Source:                     first.Source,
		Value:                      math.Trunc(formulas.WeightedMean(values, weights)),
		Touches:                    touches,
		IsDerivedFromMovingAverage: first.IsDerivedFromMovingAverage,
	}
}

func sortLevels(levels []domain.Level) {
	sort.SliceStable(levels, func(a, b int) bool {
		return levels[a].Value < levels[b].Value
	})
}
