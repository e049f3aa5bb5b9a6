package market_regime

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/domain"
)

// Flatness reasons
const (
	ReasonLowDirectionalStrength     = "LOW_DIRECTIONAL_STRENGTH"
	ReasonVeryLowDirectionalStrength = "VERY_LOW_DIRECTIONAL_STRENGTH"
	ReasonLowVolatility              = "LOW_VOLATILITY"
	ReasonVeryLowVolatility          = "VERY_LOW_VOLATILITY"
	ReasonConsecutiveDoji            = "CONSECUTIVE_DOJI"
	ReasonConsecutiveSpinningTops    = "CONSECUTIVE_SPINNING_TOPS"
	ReasonConsecutiveSmallCandles    = "CONSECUTIVE_SMALL_CANDLES"
)

// Config holds the flat-market thresholds and the adaptation applied to
// flat-sensitive scenarios.
type Config struct {
	Timeframe                  domain.Timeframe `toml:"timeframe"`
	ATRPeriod                  int              `toml:"atr_period"`
	RangeWindow                int              `toml:"range_window"`
	CandleLookback             int              `toml:"candle_lookback"`
	MinATR                     float64          `toml:"min_atr"`
	MinPriceRange              float64          `toml:"min_price_range"`
	MinDirectionalStrength     float64          `toml:"min_directional_strength"`
	VeryLowDirectionalStrength float64          `toml:"very_low_directional_strength"`
	LowVolatility              float64          `toml:"low_volatility"`
	VeryLowVolatility          float64          `toml:"very_low_volatility"`
	MaxConsecutiveDoji         int              `toml:"max_consecutive_doji"`
	MaxConsecutiveSpinningTops int              `toml:"max_consecutive_spinning_tops"`
	MaxConsecutiveSmallCandles int              `toml:"max_consecutive_small_candles"`
	CategoryIncrement          int              `toml:"category_increment"`
	FlatMinQualityScore        float64          `toml:"flat_min_quality_score"`
}

// DefaultConfig returns thresholds tuned for 5-minute index bars
func DefaultConfig() Config {
	return Config{
		Timeframe:                  domain.Timeframe5Min,
		ATRPeriod:                  14,
		RangeWindow:                20,
		CandleLookback:             10,
		MinATR:                     10,
		MinPriceRange:              40,
		MinDirectionalStrength:     0.6,
		VeryLowDirectionalStrength: 0.5,
		LowVolatility:              0.5,
		VeryLowVolatility:          0.3,
		MaxConsecutiveDoji:         2,
		MaxConsecutiveSpinningTops: 3,
		MaxConsecutiveSmallCandles: 4,
		CategoryIncrement:          1,
		FlatMinQualityScore:        6,
	}
}

// MarketCondition is the flat/trending verdict for one snapshot
type MarketCondition struct {
	Reasons             []string          `json:"reasons,omitempty"`
	Candles             CandleComposition `json:"candles"`
	Volatility          Volatility        `json:"volatility"`
	DirectionalStrength float64           `json:"directional_strength"`
	IsFlat              bool              `json:"is_flat"`
}

// Detector decides whether the market is flat
type Detector struct {
	cfg Config
	log zerolog.Logger
}

// NewDetector creates a new market condition detector
func NewDetector(cfg Config, log zerolog.Logger) *Detector {
	return &Detector{
		cfg: cfg,
		log: log.With().Str("component", "market_condition").Logger(),
	}
}

// Config returns the detector configuration
func (d *Detector) Config() Config {
	return d.cfg
}

// Analyze computes directional strength, volatility and candle composition and
// flags the market flat when any trigger fires.
func (d *Detector) Analyze(s *domain.Snapshot) MarketCondition {
	bars := s.BarsFor(d.cfg.Timeframe)

	cond := MarketCondition{
		DirectionalStrength: DirectionalStrength(s),
		Volatility:          VolatilityScore(bars, d.cfg),
		Candles:             AnalyzeCandles(bars, d.cfg.CandleLookback),
	}

	add := func(fired bool, reason, detail string) {
		if fired {
			cond.Reasons = append(cond.Reasons, reason+" ("+detail+")")
		}
	}

	ds := cond.DirectionalStrength
	vol := cond.Volatility.Score
	c := cond.Candles

	add(ds < d.cfg.MinDirectionalStrength, ReasonLowDirectionalStrength, fmt.Sprintf("%.2f < %.2f", ds, d.cfg.MinDirectionalStrength))
	add(vol < d.cfg.LowVolatility, ReasonLowVolatility, fmt.Sprintf("%.2f < %.2f", vol, d.cfg.LowVolatility))
	add(c.ConsecutiveDoji > d.cfg.MaxConsecutiveDoji, ReasonConsecutiveDoji, fmt.Sprintf("%d > %d", c.ConsecutiveDoji, d.cfg.MaxConsecutiveDoji))
	add(c.ConsecutiveSpinningTops > d.cfg.MaxConsecutiveSpinningTops, ReasonConsecutiveSpinningTops, fmt.Sprintf("%d > %d", c.ConsecutiveSpinningTops, d.cfg.MaxConsecutiveSpinningTops))
	add(ds < d.cfg.VeryLowDirectionalStrength, ReasonVeryLowDirectionalStrength, fmt.Sprintf("%.2f < %.2f", ds, d.cfg.VeryLowDirectionalStrength))
	add(vol < d.cfg.VeryLowVolatility, ReasonVeryLowVolatility, fmt.Sprintf("%.2f < %.2f", vol, d.cfg.VeryLowVolatility))
	add(c.ConsecutiveSmallCandles > d.cfg.MaxConsecutiveSmallCandles, ReasonConsecutiveSmallCandles, fmt.Sprintf("%d > %d", c.ConsecutiveSmallCandles, d.cfg.MaxConsecutiveSmallCandles))

	cond.IsFlat = len(cond.Reasons) > 0

	if cond.IsFlat {
		d.log.Debug().
			Str("instrument", s.Instrument).
			Strs("reasons", cond.Reasons).
			Float64("directional_strength", ds).
			Float64("volatility", vol).
			Msg("Flat market detected")
	}

	return cond
}
