package levels

import (
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/domain"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/pkg/formulas"
)

// FitTrendLine fits the line through two swing points. The caller guarantees
// first.BarIndex < second.BarIndex.
func FitTrendLine(first, second domain.SwingPoint, kind domain.TrendLineKind, endIndex int) domain.TrendLine {
	slope := formulas.SafeRatio(second.Price-first.Price, float64(second.BarIndex-first.BarIndex))
	return domain.TrendLine{
		Kind:        kind,
		Slope:       slope,
		Intercept:   first.Price - slope*float64(first.BarIndex),
		OriginIndex: first.BarIndex,
		EndIndex:    endIndex,
	}
}

// ValidateTrendLine walks every bar from the line's origin to the end of the series
// and counts breaches: a close more than breachPct percent past the line in the
// adverse direction (below a support line, above a resistance line). The line is
// valid only if breaches/checked < maxBreachRatio.
func ValidateTrendLine(bars []domain.Bar, line domain.TrendLine, breachPct, maxBreachRatio float64) bool {
	if line.OriginIndex < 0 || line.OriginIndex >= len(bars) {
		return false
	}

	tolerance := breachPct / 100
	breaches, checked := 0, 0
	for i := line.OriginIndex; i < len(bars); i++ {
		value := line.ValueAt(i)
		closePrice := bars[i].Close
		checked++

		switch line.Kind {
		case domain.TrendLineSupportUp:
			if closePrice < value*(1-tolerance) {
				breaches++
			}
		case domain.TrendLineResistanceDown:
			if closePrice > value*(1+tolerance) {
				breaches++
			}
		}
	}

	return float64(breaches)/float64(checked) < maxBreachRatio
}

// trendLineLevels fits every rising pair of swing lows (support) or falling pair of
// swing highs (resistance), keeps the validated lines and returns their projections
// at the latest bar that sit on the correct side of price.
func trendLineLevels(
	bars []domain.Bar,
	swings []domain.SwingPoint,
	kind domain.TrendLineKind,
	price float64,
	tf domain.Timeframe,
	cfg Config,
) []domain.Level {
	last := len(bars) - 1
	var out []domain.Level

	for a := 0; a < len(swings); a++ {
		for b := a + 1; b < len(swings); b++ {
			first, second := swings[a], swings[b]
			if first.BarIndex >= second.BarIndex {
				continue
			}

			rising := second.Price > first.Price
			if kind == domain.TrendLineSupportUp && !rising {
				continue
			}
			if kind == domain.TrendLineResistanceDown && (rising || second.Price == first.Price) {
				continue
			}

			line := FitTrendLine(first, second, kind, last)
			if !ValidateTrendLine(bars, line, cfg.BreachTolerancePct, cfg.MaxBreachRatio) {
				continue
			}

			projected := formulas.Sanitize(line.ValueAt(last))
			if projected <= 0 {
				continue
			}
			if kind == domain.TrendLineSupportUp && projected >= price {
				continue
			}
			if kind == domain.TrendLineResistanceDown && projected <= price {
				continue
			}

			out = append(out, domain.Level{
				Timeframe: tf,
				Source:    domain.LevelSourceTrendLine,
				Value:     projected,
				Touches:   1,
			})
		}
	}

	return out
}
