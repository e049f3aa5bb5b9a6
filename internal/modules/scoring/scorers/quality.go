package scorers

import (
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/domain"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/pkg/formulas"
)

// Quality sub-score names
const (
	ComponentEMA             = "ema"
	ComponentRSI             = "rsi"
	ComponentVolume          = "volume"
	ComponentPriceAction     = "price_action"
	ComponentCrossInstrument = "cross_instrument"
	ComponentMomentum        = "momentum_alignment"
	ComponentCandlestick     = "candlestick"
)

// components are summed in this order so equal inputs give bit-identical scores
var componentOrder = []string{
	ComponentEMA,
	ComponentRSI,
	ComponentVolume,
	ComponentPriceAction,
	ComponentCrossInstrument,
	ComponentMomentum,
	ComponentCandlestick,
}

// TimeframeWeights assigns a weight to each scoring timeframe
type TimeframeWeights struct {
	OneMin     float64 `toml:"1min" json:"1min"`
	FiveMin    float64 `toml:"5min" json:"5min"`
	FifteenMin float64 `toml:"15min" json:"15min"`
}

// For returns the weight of a timeframe (0 for unknown timeframes)
func (w TimeframeWeights) For(tf domain.Timeframe) float64 {
	switch tf {
	case domain.Timeframe1Min:
		return w.OneMin
	case domain.Timeframe5Min:
		return w.FiveMin
	case domain.Timeframe15Min:
		return w.FifteenMin
	}
	return 0
}

// CandlestickWeights weights the reversal/continuation patterns of each direction.
// HammerOrStar is hammer for CALL and shooting star for PUT, MorningEvening is
// morning/evening star, ThreeCandles is three white soldiers / three black crows.
type CandlestickWeights struct {
	Engulfing      float64 `toml:"engulfing" json:"engulfing"`
	HammerOrStar   float64 `toml:"hammer_or_star" json:"hammer_or_star"`
	MorningEvening float64 `toml:"morning_evening" json:"morning_evening"`
	ThreeCandles   float64 `toml:"three_candles" json:"three_candles"`
}

// QualityConfig holds the quality scorer weights
type QualityConfig struct {
	EMAWeights           TimeframeWeights   `toml:"ema_weights"`
	RSIWeights           TimeframeWeights   `toml:"rsi_weights"`
	VolumeWeights        TimeframeWeights   `toml:"volume_weights"`
	CandleColorWeights   TimeframeWeights   `toml:"candle_color_weights"`
	Candlestick          CandlestickWeights `toml:"candlestick"`
	MomentumTiers        [4]float64         `toml:"momentum_tiers"` // score for 0/3, 1/3, 2/3, 3/3 agreeing timeframes
	MinQualityScore      float64            `toml:"min_quality_score"`
	LongBodyWeight       float64            `toml:"long_body_weight"`
	ReferenceLevelWeight float64            `toml:"reference_level_weight"`
	BreakoutWeight       float64            `toml:"breakout_weight"`
	CrossInstrumentScore float64            `toml:"cross_instrument_score"`
	CandlestickCap       float64            `toml:"candlestick_cap"`
	SubScoreCap          float64            `toml:"sub_score_cap"`
}

// DefaultQualityConfig returns the stock weights
func DefaultQualityConfig() QualityConfig {
	return QualityConfig{
		EMAWeights:         TimeframeWeights{OneMin: 2, FiveMin: 4, FifteenMin: 4},
		RSIWeights:         TimeframeWeights{OneMin: 2, FiveMin: 4, FifteenMin: 4},
		VolumeWeights:      TimeframeWeights{OneMin: 3, FiveMin: 4, FifteenMin: 3},
		CandleColorWeights: TimeframeWeights{OneMin: 1, FiveMin: 2, FifteenMin: 2},
		Candlestick: CandlestickWeights{
			Engulfing:      3,
			HammerOrStar:   2,
			MorningEvening: 3,
			ThreeCandles:   4,
		},
		MomentumTiers:        [4]float64{0, 4, 7, 10},
		MinQualityScore:      3,
		LongBodyWeight:       1,
		ReferenceLevelWeight: 1,
		BreakoutWeight:       1,
		CrossInstrumentScore: 10,
		CandlestickCap:       10,
		SubScoreCap:          10,
	}
}

// QualityScore is the composite 0-10 confidence of one direction
type QualityScore struct {
	Components map[string]float64 `json:"components"`
	Direction  domain.Direction   `json:"direction"`
	Score      float64            `json:"score"`
	Raw        float64            `json:"raw"` // average before the minimum-quality floor
}

// QualityScorer averages seven capped sub-scores into one number per direction
type QualityScorer struct {
	cfg QualityConfig
}

// NewQualityScorer creates a new quality scorer
func NewQualityScorer(cfg QualityConfig) *QualityScorer {
	if cfg.SubScoreCap <= 0 {
		cfg.SubScoreCap = 10
	}
	if cfg.CandlestickCap <= 0 {
		cfg.CandlestickCap = cfg.SubScoreCap
	}
	return &QualityScorer{cfg: cfg}
}

// Score computes the quality score of one direction.
// An average below MinQualityScore reports exactly 0.
func (qs *QualityScorer) Score(s *domain.Snapshot, direction domain.Direction) QualityScore {
	call := direction != domain.DirectionPut
	capped := func(v float64) float64 { return formulas.Clamp(v, 0, qs.cfg.SubScoreCap) }

	components := map[string]float64{
		ComponentEMA:             capped(qs.emaScore(s, call)),
		ComponentRSI:             capped(qs.rsiScore(s, call)),
		ComponentVolume:          capped(qs.volumeScore(s)),
		ComponentPriceAction:     capped(qs.priceActionScore(s, call)),
		ComponentCrossInstrument: capped(qs.crossInstrumentScore(s, call)),
		ComponentMomentum:        capped(qs.momentumScore(s, call)),
		ComponentCandlestick:     capped(qs.candlestickScore(s, call)),
	}

	var sum float64
	for _, name := range componentOrder {
		sum += components[name]
	}
	raw := formulas.Sanitize(sum / float64(len(componentOrder)))

	score := raw
	if score < qs.cfg.MinQualityScore {
		score = 0
	}

	return QualityScore{
		Components: components,
		Direction:  direction,
		Score:      score,
		Raw:        raw,
	}
}

// ScoreBoth returns the CALL and PUT quality scores
func (qs *QualityScorer) ScoreBoth(s *domain.Snapshot) (call, put QualityScore) {
	return qs.Score(s, domain.DirectionCall), qs.Score(s, domain.DirectionPut)
}

func pick(call bool, bullish, bearish domain.ConditionKey) domain.ConditionKey {
	if call {
		return bullish
	}
	return bearish
}

// weighted sums the timeframe weights of every true per-timeframe condition
func weighted(s *domain.Snapshot, key domain.ConditionKey, w TimeframeWeights) float64 {
	var total float64
	for _, tf := range domain.ScoringTimeframes {
		if s.Bool(domain.Key(key, tf)) {
			total += w.For(tf)
		}
	}
	return total
}

// agreeing counts the timeframes on which a condition holds
func agreeing(s *domain.Snapshot, key domain.ConditionKey) int {
	n := 0
	for _, tf := range domain.ScoringTimeframes {
		if s.Bool(domain.Key(key, tf)) {
			n++
		}
	}
	return n
}

func (qs *QualityScorer) emaScore(s *domain.Snapshot, call bool) float64 {
	return weighted(s, pick(call, domain.EMAFastAboveSlow, domain.EMAFastBelowSlow), qs.cfg.EMAWeights)
}

func (qs *QualityScorer) rsiScore(s *domain.Snapshot, call bool) float64 {
	return weighted(s, pick(call, domain.RSIAboveThreshold, domain.RSIBelowThreshold), qs.cfg.RSIWeights)
}

func (qs *QualityScorer) volumeScore(s *domain.Snapshot) float64 {
	return weighted(s, domain.VolumeSurge, qs.cfg.VolumeWeights)
}

func (qs *QualityScorer) priceActionScore(s *domain.Snapshot, call bool) float64 {
	score := weighted(s, pick(call, domain.GreenCandle, domain.RedCandle), qs.cfg.CandleColorWeights)
	score += float64(agreeing(s, domain.LongBody)) * qs.cfg.LongBodyWeight
	score += float64(agreeing(s, pick(call, domain.PriceAboveVWAP, domain.PriceBelowVWAP))) * qs.cfg.ReferenceLevelWeight
	score += float64(agreeing(s, pick(call, domain.PriceAboveResistance, domain.PriceBelowSupport))) * qs.cfg.BreakoutWeight
	return score
}

// crossInstrumentScore gives full weight when the correlated instrument agrees on
// every timeframe and half weight when only some agree.
func (qs *QualityScorer) crossInstrumentScore(s *domain.Snapshot, call bool) float64 {
	n := agreeing(s, pick(call, domain.FutureBullish, domain.FutureBearish))
	switch {
	case n == len(domain.ScoringTimeframes):
		return qs.cfg.CrossInstrumentScore
	case n > 0:
		return qs.cfg.CrossInstrumentScore / 2
	}
	return 0
}

func (qs *QualityScorer) momentumScore(s *domain.Snapshot, call bool) float64 {
	n := agreeing(s, pick(call, domain.MomentumBullish, domain.MomentumBearish))
	if n >= len(qs.cfg.MomentumTiers) {
		n = len(qs.cfg.MomentumTiers) - 1
	}
	return qs.cfg.MomentumTiers[n]
}

func (qs *QualityScorer) candlestickScore(s *domain.Snapshot, call bool) float64 {
	w := qs.cfg.Candlestick
	score := float64(agreeing(s, pick(call, domain.BullishEngulfing, domain.BearishEngulfing))) * w.Engulfing
	score += float64(agreeing(s, pick(call, domain.Hammer, domain.ShootingStar))) * w.HammerOrStar
	score += float64(agreeing(s, pick(call, domain.MorningStar, domain.EveningStar))) * w.MorningEvening
	score += float64(agreeing(s, pick(call, domain.ThreeWhiteSoldiers, domain.ThreeBlackCrows))) * w.ThreeCandles
	return formulas.Clamp(score, 0, qs.cfg.CandlestickCap)
}
