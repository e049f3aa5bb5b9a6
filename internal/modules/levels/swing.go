// Package levels derives support/resistance structure from raw bars: swing
// points, clustered horizontal levels and validated trend lines.
package levels

import "github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/domain"

// SwingLookback returns the swing window half-width for a level period.
func SwingLookback(period int) int {
	return clampLookback(min(5, period/10))
}

// TrendLineLookback returns the (tighter) swing half-width used for trend lines.
func TrendLineLookback(period int) int {
	return clampLookback(min(3, period/20))
}

func clampLookback(l int) int {
	if l < 1 {
		return 1
	}
	return l
}

// FindSwingPoints scans bars[start..end] (inclusive) for swing highs and lows.
//
// Index i is a swing high iff High(i) is strictly greater than High(j) for every j in
// [i-lookback, i+lookback] except i; a swing low is the mirror with strictly lower
// lows. Only indices in [start+lookback, end-lookback] are candidates. Fewer than
// 2*lookback+1 bars yields nil.
func FindSwingPoints(bars []domain.Bar, start, end, lookback int) []domain.SwingPoint {
	if lookback < 1 || len(bars) == 0 {
		return nil
	}
	if start < 0 {
		start = 0
	}
	if end > len(bars)-1 {
		end = len(bars) - 1
	}
	if end-start+1 < lookback*2+1 {
		return nil
	}

	var points []domain.SwingPoint
	for i := start + lookback; i <= end-lookback; i++ {
		if isSwingHigh(bars, i, lookback) {
			points = append(points, domain.SwingPoint{Kind: domain.SwingHigh, BarIndex: i, Price: bars[i].High})
		}
		if isSwingLow(bars, i, lookback) {
			points = append(points, domain.SwingPoint{Kind: domain.SwingLow, BarIndex: i, Price: bars[i].Low})
		}
	}

	return points
}

func isSwingHigh(bars []domain.Bar, i, lookback int) bool {
	for j := i - lookback; j <= i+lookback; j++ {
		if j == i {
			continue
		}
		if bars[i].High <= bars[j].High {
			return false
		}
	}
	return true
}

func isSwingLow(bars []domain.Bar, i, lookback int) bool {
	for j := i - lookback; j <= i+lookback; j++ {
		if j == i {
			continue
		}
		if bars[i].Low >= bars[j].Low {
			return false
		}
	}
	return true
}

// filterSwings returns the points of one kind, preserving index order.
func filterSwings(points []domain.SwingPoint, kind domain.SwingKind) []domain.SwingPoint {
	out := make([]domain.SwingPoint, 0, len(points))
	for _, p := range points {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}
