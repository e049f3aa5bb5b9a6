package market_regime

import (
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/domain"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/pkg/formulas"
)

// Body-to-range thresholds
const (
	DojiMaxRatio        = 0.1
	SmallBodyMaxRatio   = 0.2
	SpinningTopMaxRatio = 0.3
	LongBodyMinRatio    = 0.6
)

// CandleComposition describes the latest bar and the trailing streaks of weak bars
type CandleComposition struct {
	BodyRatio               float64 `json:"body_ratio"`
	IsDoji                  bool    `json:"is_doji"`
	IsSpinningTop           bool    `json:"is_spinning_top"`
	IsSmallBody             bool    `json:"is_small_body"`
	IsLongBody              bool    `json:"is_long_body"`
	ConsecutiveSmallCandles int     `json:"consecutive_small_candles"`
	ConsecutiveDoji         int     `json:"consecutive_doji"`
	ConsecutiveSpinningTops int     `json:"consecutive_spinning_tops"`
}

// BodyRatio returns |close-open| / (high-low), 0 for a zero-range bar
func BodyRatio(b domain.Bar) float64 {
	return formulas.SafeRatio(b.Body(), b.Range())
}

// AnalyzeCandles classifies the latest bar and counts the weak-bar streaks that
// end at it, looking back at most lookback bars. A bar that breaks a pattern
// resets that streak to 0.
func AnalyzeCandles(bars []domain.Bar, lookback int) CandleComposition {
	if len(bars) == 0 {
		return CandleComposition{}
	}
	if lookback <= 0 || lookback > len(bars) {
		lookback = len(bars)
	}

	var comp CandleComposition
	for _, b := range bars[len(bars)-lookback:] {
		ratio := BodyRatio(b)
		comp.ConsecutiveSmallCandles = streak(comp.ConsecutiveSmallCandles, ratio <= SmallBodyMaxRatio)
		comp.ConsecutiveDoji = streak(comp.ConsecutiveDoji, ratio <= DojiMaxRatio)
		comp.ConsecutiveSpinningTops = streak(comp.ConsecutiveSpinningTops, ratio <= SpinningTopMaxRatio)
	}

	ratio := BodyRatio(bars[len(bars)-1])
	comp.BodyRatio = ratio
	comp.IsDoji = ratio <= DojiMaxRatio
	comp.IsSpinningTop = ratio <= SpinningTopMaxRatio
	comp.IsSmallBody = ratio <= SmallBodyMaxRatio
	comp.IsLongBody = ratio >= LongBodyMinRatio

	return comp
}

func streak(n int, matches bool) int {
	if matches {
		return n + 1
	}
	return 0
}
