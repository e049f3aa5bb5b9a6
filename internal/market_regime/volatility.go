package market_regime

import (
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/domain"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/pkg/formulas"
)

// Volatility holds the raw inputs and the combined score
type Volatility struct {
	ATR        float64 `json:"atr"`
	PriceRange float64 `json:"price_range"`
	Score      float64 `json:"score"`
}

// VolatilityScore averages clamp01(ATR/MinATR) and clamp01(range/MinPriceRange).
// Degenerate inputs and zero minimums contribute 0.
func VolatilityScore(bars []domain.Bar, cfg Config) Volatility {
	if len(bars) == 0 {
		return Volatility{}
	}

	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	closes := make([]float64, len(bars))
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
		closes[i] = b.Close
	}

	atr := formulas.CalculateATR(highs, lows, closes, cfg.ATRPeriod)
	rng := formulas.PriceRange(highs, lows, cfg.RangeWindow)

	atrRatio := formulas.Clamp01(formulas.SafeRatio(atr, cfg.MinATR))
	rangeRatio := formulas.Clamp01(formulas.SafeRatio(rng, cfg.MinPriceRange))

	return Volatility{
		ATR:        atr,
		PriceRange: rng,
		Score:      formulas.Sanitize((atrRatio + rangeRatio) / 2),
	}
}
