package market_regime

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/domain"
)

func bar(open, close, low, high float64) domain.Bar {
	return domain.Bar{Open: open, Close: close, Low: low, High: high}
}

func trendingBars(n int) []domain.Bar {
	bars := make([]domain.Bar, n)
	for i := range bars {
		open := 100 + float64(i)*10
		bars[i] = bar(open, open+9, open-0.5, open+9.5)
	}
	return bars
}

func dojiBars(n int) []domain.Bar {
	bars := make([]domain.Bar, n)
	for i := range bars {
		bars[i] = bar(100, 100.1, 99.5, 100.5)
	}
	return bars
}

func booleans(keys ...domain.ConditionKey) map[string]bool {
	b := map[string]bool{}
	for _, k := range keys {
		for _, tf := range domain.ScoringTimeframes {
			b[domain.Key(k, tf)] = true
		}
	}
	return b
}

func TestDirectionalStrength(t *testing.T) {
	tests := []struct {
		name     string
		booleans map[string]bool
		want     float64
	}{
		{"no signals", nil, 0},
		{"all bullish", booleans(domain.EMAFastAboveSlow, domain.RSIAboveThreshold, domain.PriceAboveVWAP), 1},
		{"balanced", booleans(domain.EMAFastAboveSlow, domain.EMAFastBelowSlow), 0.5},
		{
			"three bullish one bearish",
			map[string]bool{
				"ema_fast_above_slow_1min": true,
				"ema_fast_above_slow_5min": true,
				"price_above_vwap_15min":   true,
				"rsi_below_threshold_5min": true,
				"unrelated_flag":           true,
			},
			0.75,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &domain.Snapshot{Booleans: tt.booleans}
			assert.InDelta(t, tt.want, DirectionalStrength(s), 1e-9)
		})
	}
}

func TestAnalyzeCandles(t *testing.T) {
	bars := []domain.Bar{
		bar(100, 108, 100, 110),  // 0.8 long body
		bar(100, 100.5, 95, 105), // 0.05 doji
		bar(100, 99.5, 95, 105),  // 0.05 doji
		bar(100, 102.5, 95, 105), // 0.25 spinning top
	}

	comp := AnalyzeCandles(bars, 10)

	assert.InDelta(t, 0.25, comp.BodyRatio, 1e-9)
	assert.True(t, comp.IsSpinningTop)
	assert.False(t, comp.IsSmallBody)
	assert.False(t, comp.IsDoji)
	assert.False(t, comp.IsLongBody)
	assert.Equal(t, 0, comp.ConsecutiveSmallCandles, "spinning top breaks the small-body streak")
	assert.Equal(t, 0, comp.ConsecutiveDoji)
	assert.Equal(t, 3, comp.ConsecutiveSpinningTops)

	t.Run("lookback bounds the streak", func(t *testing.T) {
		assert.Equal(t, 2, AnalyzeCandles(bars, 2).ConsecutiveSpinningTops)
	})

	t.Run("long body", func(t *testing.T) {
		comp := AnalyzeCandles(bars[:1], 10)
		assert.True(t, comp.IsLongBody)
		assert.Equal(t, 0, comp.ConsecutiveSpinningTops)
	})

	t.Run("zero range bar reads as doji", func(t *testing.T) {
		comp := AnalyzeCandles([]domain.Bar{bar(100, 100, 100, 100)}, 5)
		assert.Equal(t, 0.0, comp.BodyRatio)
		assert.True(t, comp.IsDoji)
		assert.Equal(t, 1, comp.ConsecutiveDoji)
	})

	t.Run("no bars", func(t *testing.T) {
		assert.Equal(t, CandleComposition{}, AnalyzeCandles(nil, 5))
	})
}

func TestVolatilityScore(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("constant range bars", func(t *testing.T) {
		bars := make([]domain.Bar, 30)
		for i := range bars {
			bars[i] = bar(100, 100, 90, 110)
		}
		v := VolatilityScore(bars, cfg)
		assert.InDelta(t, 20, v.ATR, 1e-6)
		assert.InDelta(t, 20, v.PriceRange, 1e-9)
		assert.InDelta(t, 0.75, v.Score, 1e-9, "ATR ratio clamps to 1, range ratio is 0.5")
	})

	t.Run("zero minimums degrade to zero", func(t *testing.T) {
		c := cfg
		c.MinATR = 0
		c.MinPriceRange = 0
		v := VolatilityScore(trendingBars(30), c)
		assert.Equal(t, 0.0, v.Score)
	})

	t.Run("too few bars for ATR", func(t *testing.T) {
		v := VolatilityScore(trendingBars(5), cfg)
		assert.Equal(t, 0.0, v.ATR)
		assert.InDelta(t, 0.5, v.Score, 1e-9, "range of 50 still saturates its half")
	})

	t.Run("no bars", func(t *testing.T) {
		assert.Equal(t, Volatility{}, VolatilityScore(nil, cfg))
	})
}

func TestDetector_Analyze(t *testing.T) {
	d := NewDetector(DefaultConfig(), zerolog.Nop())

	t.Run("trending market", func(t *testing.T) {
		s := &domain.Snapshot{
			Booleans: booleans(domain.EMAFastAboveSlow, domain.RSIAboveThreshold, domain.PriceAboveVWAP),
			Bars:     map[domain.Timeframe][]domain.Bar{domain.Timeframe5Min: trendingBars(30)},
		}
		cond := d.Analyze(s)
		assert.False(t, cond.IsFlat, "reasons: %v", cond.Reasons)
		assert.Empty(t, cond.Reasons)
		assert.Equal(t, 1.0, cond.DirectionalStrength)
		assert.Equal(t, 1.0, cond.Volatility.Score)
	})

	t.Run("dead market", func(t *testing.T) {
		s := &domain.Snapshot{
			Bars: map[domain.Timeframe][]domain.Bar{domain.Timeframe5Min: dojiBars(30)},
		}
		cond := d.Analyze(s)
		require.True(t, cond.IsFlat)
		for _, reason := range []string{
			ReasonLowDirectionalStrength,
			ReasonVeryLowDirectionalStrength,
			ReasonLowVolatility,
			ReasonVeryLowVolatility,
			ReasonConsecutiveDoji,
			ReasonConsecutiveSpinningTops,
			ReasonConsecutiveSmallCandles,
		} {
			assert.True(t, hasReason(cond.Reasons, reason), "missing %s in %v", reason, cond.Reasons)
		}
	})

	t.Run("any single trigger is enough", func(t *testing.T) {
		bars := trendingBars(30)
		for i := len(bars) - 3; i < len(bars); i++ {
			open := bars[i].Open
			bars[i] = bar(open, open+0.1, open-10, open+10)
		}
		s := &domain.Snapshot{
			Booleans: booleans(domain.EMAFastAboveSlow, domain.RSIAboveThreshold, domain.PriceAboveVWAP),
			Bars:     map[domain.Timeframe][]domain.Bar{domain.Timeframe5Min: bars},
		}
		cond := d.Analyze(s)
		assert.True(t, cond.IsFlat)
		assert.Len(t, cond.Reasons, 1)
		assert.True(t, hasReason(cond.Reasons, ReasonConsecutiveDoji))
	})
}

func hasReason(reasons []string, reason string) bool {
	for _, r := range reasons {
		if strings.HasPrefix(r, reason+" ") {
			return true
		}
	}
	return false
}

func ptr(v float64) *float64 { return &v }

func TestAdaptRequirements(t *testing.T) {
	cfg := DefaultConfig()
	req := domain.Requirements{
		Categories:       map[string]int{"trend": 2, "momentum": 1},
		MinQualityScore:  ptr(4),
		FlatMarketFilter: true,
	}
	flat := MarketCondition{IsFlat: true}

	t.Run("flat and sensitive", func(t *testing.T) {
		eff := AdaptRequirements(req, flat, cfg)
		assert.True(t, eff.Adapted)
		assert.Equal(t, map[string]int{"trend": 3, "momentum": 2}, eff.Categories)
		assert.Equal(t, 6.0, eff.MinQualityScore)
		assert.Equal(t, 2, req.Categories["trend"], "input requirements are not mutated")
	})

	t.Run("not flat", func(t *testing.T) {
		eff := AdaptRequirements(req, MarketCondition{}, cfg)
		assert.False(t, eff.Adapted)
		assert.Equal(t, req.Categories, eff.Categories)
		assert.Equal(t, 4.0, eff.MinQualityScore)
	})

	t.Run("flat but insensitive", func(t *testing.T) {
		r := req
		r.FlatMarketFilter = false
		eff := AdaptRequirements(r, flat, cfg)
		assert.False(t, eff.Adapted)
		assert.Equal(t, req.Categories, eff.Categories)
	})

	t.Run("higher original floor is kept", func(t *testing.T) {
		r := req
		r.MinQualityScore = ptr(8)
		assert.Equal(t, 8.0, AdaptRequirements(r, flat, cfg).MinQualityScore)
	})

	t.Run("undeclared floor", func(t *testing.T) {
		r := req
		r.MinQualityScore = nil
		assert.Equal(t, 0.0, AdaptRequirements(r, MarketCondition{}, cfg).MinQualityScore)
		assert.Equal(t, 6.0, AdaptRequirements(r, flat, cfg).MinQualityScore)
	})
}

func TestAdaptRequirements_OnlyTightens(t *testing.T) {
	cfg := DefaultConfig()
	for increment := 0; increment <= 3; increment++ {
		for _, floor := range []float64{0, 3, 6, 9} {
			c := cfg
			c.CategoryIncrement = increment
			c.FlatMinQualityScore = floor
			req := domain.Requirements{
				Categories:       map[string]int{"trend": 0, "candlestick": 2, "momentum": 5},
				MinQualityScore:  ptr(5),
				FlatMarketFilter: true,
			}

			base := AdaptRequirements(req, MarketCondition{}, c)
			adapted := AdaptRequirements(req, MarketCondition{IsFlat: true}, c)

			for name, n := range base.Categories {
				assert.GreaterOrEqual(t, adapted.Categories[name], n)
			}
			assert.GreaterOrEqual(t, adapted.MinQualityScore, base.MinQualityScore)
		}
	}
}
