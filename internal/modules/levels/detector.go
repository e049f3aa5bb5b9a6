package levels

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/domain"
)

// Config holds level detection parameters
type Config struct {
	Timeframes           []domain.Timeframe `toml:"timeframes"`
	Periods              []int              `toml:"periods"`
	ClusterTolerance     float64            `toml:"cluster_tolerance"`
	NearLevelDistance    float64            `toml:"near_level_distance"`
	RoundFigureStep      float64            `toml:"round_figure_step"`
	RoundFigureTolerance float64            `toml:"round_figure_tolerance"`
	BreachTolerancePct   float64            `toml:"breach_tolerance_pct"` // percent, 0.10 = 0.10%
	MaxBreachRatio       float64            `toml:"max_breach_ratio"`
}

// DefaultConfig returns the index-option defaults
func DefaultConfig() Config {
	return Config{
		Timeframes:           []domain.Timeframe{domain.Timeframe5Min, domain.Timeframe15Min},
		Periods:              []int{20, 50, 100},
		ClusterTolerance:     15,
		NearLevelDistance:    5,
		RoundFigureStep:      500,
		RoundFigureTolerance: 10,
		BreachTolerancePct:   0.10,
		MaxBreachRatio:       0.10,
	}
}

// Series is one timeframe's bar sequence
type Series struct {
	Timeframe domain.Timeframe
	Bars      []domain.Bar
}

// LevelSet holds ordered, de-duplicated supports and resistances
type LevelSet struct {
	Supports    []domain.Level `json:"supports"`
	Resistances []domain.Level `json:"resistances"`
}

// NearestSupport returns the highest support strictly below price
func (s LevelSet) NearestSupport(price float64) (domain.Level, bool) {
	for i := len(s.Supports) - 1; i >= 0; i-- {
		if s.Supports[i].Value < price {
			return s.Supports[i], true
		}
	}
	return domain.Level{}, false
}

// NearestResistance returns the lowest resistance strictly above price
func (s LevelSet) NearestResistance(price float64) (domain.Level, bool) {
	for _, l := range s.Resistances {
		if l.Value > price {
			return l, true
		}
	}
	return domain.Level{}, false
}

// IsVeryNearLevel reports whether price is within distance of any level
func (s LevelSet) IsVeryNearLevel(price, distance float64) bool {
	for _, group := range [][]domain.Level{s.Supports, s.Resistances} {
		for _, l := range group {
			if math.Abs(price-l.Value) <= distance {
				return true
			}
		}
	}
	return false
}

// IsNearRoundFigure reports whether price is within tolerance of a multiple of step
func IsNearRoundFigure(price, step, tolerance float64) bool {
	if step <= 0 {
		return false
	}
	nearest := math.Round(price/step) * step
	return math.Abs(price-nearest) <= tolerance
}

// Detector finds support and resistance levels. It holds no per-call state and is
// safe for concurrent use.
type Detector struct {
	cfg Config
	log zerolog.Logger
}

// NewDetector creates a new level detector
func NewDetector(cfg Config, log zerolog.Logger) *Detector {
	return &Detector{
		cfg: cfg,
		log: log.With().Str("component", "level_detector").Logger(),
	}
}

// Config returns the detector configuration
func (d *Detector) Config() Config {
	return d.cfg
}

// DetectSnapshot runs Detect over the configured timeframes of a snapshot
func (d *Detector) DetectSnapshot(s *domain.Snapshot) LevelSet {
	series := make([]Series, 0, len(d.cfg.Timeframes))
	for _, tf := range d.cfg.Timeframes {
		if bars := s.BarsFor(tf); len(bars) > 0 {
			series = append(series, Series{Timeframe: tf, Bars: bars})
		}
	}
	return d.Detect(series, s.CurrentPrice(), s.MovingAverages)
}

// Detect builds the clustered level set.
//
// Swing lows below price become support candidates and swing highs above price
// resistance candidates; moving-average values become flagged candidates on the
// matching side; validated trend-line projections are added as dynamic levels.
// Insufficient data yields an empty set.
func (d *Detector) Detect(series []Series, price float64, movingAverages []float64) LevelSet {
	if price <= 0 || math.IsNaN(price) {
		return LevelSet{}
	}

	var supports, resistances []domain.Level

	for _, s := range series {
		n := len(s.Bars)
		for _, period := range d.cfg.Periods {
			if period <= 0 {
				continue
			}
			start := max(0, n-period)

			swings := FindSwingPoints(s.Bars, start, n-1, SwingLookback(period))
			for _, p := range swings {
				switch {
				case p.Kind == domain.SwingLow && p.Price < price:
					supports = append(supports, swingLevel(p, s.Timeframe))
				case p.Kind == domain.SwingHigh && p.Price > price:
					resistances = append(resistances, swingLevel(p, s.Timeframe))
				}
			}

			tlSwings := FindSwingPoints(s.Bars, start, n-1, TrendLineLookback(period))
			supports = append(supports, trendLineLevels(s.Bars, filterSwings(tlSwings, domain.SwingLow),
				domain.TrendLineSupportUp, price, s.Timeframe, d.cfg)...)
			resistances = append(resistances, trendLineLevels(s.Bars, filterSwings(tlSwings, domain.SwingHigh),
				domain.TrendLineResistanceDown, price, s.Timeframe, d.cfg)...)
		}
	}

	for _, ma := range movingAverages {
		if ma <= 0 || math.IsNaN(ma) || math.IsInf(ma, 0) {
			continue
		}
		l := domain.Level{
			Source:                     domain.LevelSourceMovingAverage,
			Value:                      ma,
			Touches:                    1,
			IsDerivedFromMovingAverage: true,
		}
		if ma < price {
			supports = append(supports, l)
		} else if ma > price {
			resistances = append(resistances, l)
		}
	}

	set := LevelSet{
		Supports:    Cluster(supports, d.cfg.ClusterTolerance),
		Resistances: Cluster(resistances, d.cfg.ClusterTolerance),
	}

	d.log.Debug().
		Float64("price", price).
		Int("supports", len(set.Supports)).
		Int("resistances", len(set.Resistances)).
		Msg("Levels detected")

	return set
}

// IsVeryNearLevel applies the configured near-level distance
func (d *Detector) IsVeryNearLevel(set LevelSet, price float64) bool {
	return set.IsVeryNearLevel(price, d.cfg.NearLevelDistance)
}

// IsNearRoundFigure applies the configured round-figure step and tolerance
func (d *Detector) IsNearRoundFigure(price float64) bool {
	return IsNearRoundFigure(price, d.cfg.RoundFigureStep, d.cfg.RoundFigureTolerance)
}

func swingLevel(p domain.SwingPoint, tf domain.Timeframe) domain.Level {
	return domain.Level{
		Timeframe: tf,
		Source:    domain.LevelSourceSwing,
		Value:     p.Price,
		Touches:   1,
	}
}
