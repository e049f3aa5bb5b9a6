package formulas

import (
	"github.com/markcheno/go-talib"
)

// CalculateATR calculates the Average True Range over the given period.
//
// Args:
//
//	highs, lows, closes: aligned price arrays, oldest first
//	period: ATR period (typically 14)
//
// Returns:
//
//	Latest ATR value, or 0 when there is not enough data or the result is not finite
func CalculateATR(highs, lows, closes []float64, period int) float64 {
	if period <= 0 {
		return 0
	}
	n := len(closes)
	if n <= period || len(highs) != n || len(lows) != n {
		return 0
	}

	atr := talib.Atr(highs, lows, closes, period)
	if len(atr) == 0 {
		return 0
	}

	return Sanitize(atr[len(atr)-1])
}

// PriceRange returns max(highs) - min(lows) over the trailing window.
func PriceRange(highs, lows []float64, window int) float64 {
	n := len(highs)
	if n == 0 || len(lows) != n {
		return 0
	}
	if window <= 0 || window > n {
		window = n
	}

	hi := highs[n-window]
	lo := lows[n-window]
	for i := n - window + 1; i < n; i++ {
		if highs[i] > hi {
			hi = highs[i]
		}
		if lows[i] < lo {
			lo = lows[i]
		}
	}

	return Sanitize(hi - lo)
}
