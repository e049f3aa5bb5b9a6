package market_regime

import (
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/domain"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/pkg/formulas"
)

var (
	bullishBattery = []domain.ConditionKey{
		domain.EMAFastAboveSlow,
		domain.RSIAboveThreshold,
		domain.PriceAboveVWAP,
	}
	bearishBattery = []domain.ConditionKey{
		domain.EMAFastBelowSlow,
		domain.RSIBelowThreshold,
		domain.PriceBelowVWAP,
	}
)

// SignalCounts is the tally of the directional battery
type SignalCounts struct {
	Bullish int `json:"bullish"`
	Bearish int `json:"bearish"`
}

// CountSignals tallies the 18 direction-classified booleans (trend, oscillator and
// price-vs-VWAP on each scoring timeframe, both polarities).
func CountSignals(s *domain.Snapshot) SignalCounts {
	var c SignalCounts
	for _, tf := range domain.ScoringTimeframes {
		for _, key := range bullishBattery {
			if s.Bool(domain.Key(key, tf)) {
				c.Bullish++
			}
		}
		for _, key := range bearishBattery {
			if s.Bool(domain.Key(key, tf)) {
				c.Bearish++
			}
		}
	}
	return c
}

// DirectionalStrength returns max(bullish, bearish) / (bullish + bearish) over the
// battery, in [0,1]. No signals at all yields 0.
func DirectionalStrength(s *domain.Snapshot) float64 {
	c := CountSignals(s)
	dominant := c.Bullish
	if c.Bearish > dominant {
		dominant = c.Bearish
	}
	return formulas.SafeRatio(float64(dominant), float64(c.Bullish+c.Bearish))
}
