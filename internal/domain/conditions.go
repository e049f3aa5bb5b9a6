package domain

// ConditionKey is a boolean condition identifier published by the indicator stage.
// Per-timeframe conditions are stored as "<prefix>_<timeframe>", e.g.
// "ema_fast_above_slow_5min".
type ConditionKey string

// Per-timeframe condition prefixes read by the quality scorer and the
// directional-strength battery.
const (
	EMAFastAboveSlow ConditionKey = "ema_fast_above_slow"
	EMAFastBelowSlow ConditionKey = "ema_fast_below_slow"

	RSIAboveThreshold ConditionKey = "rsi_above_threshold"
	RSIBelowThreshold ConditionKey = "rsi_below_threshold"

	VolumeSurge ConditionKey = "volume_surge"

	PriceAboveVWAP ConditionKey = "price_above_vwap"
	PriceBelowVWAP ConditionKey = "price_below_vwap"

	GreenCandle ConditionKey = "green_candle"
	RedCandle   ConditionKey = "red_candle"
	LongBody    ConditionKey = "long_body"

	PriceAboveResistance ConditionKey = "price_above_resistance"
	PriceBelowSupport    ConditionKey = "price_below_support"

	FutureBullish ConditionKey = "future_bullish"
	FutureBearish ConditionKey = "future_bearish"

	MomentumBullish ConditionKey = "momentum_bullish"
	MomentumBearish ConditionKey = "momentum_bearish"

	BullishEngulfing   ConditionKey = "bullish_engulfing"
	BearishEngulfing   ConditionKey = "bearish_engulfing"
	Hammer             ConditionKey = "hammer"
	ShootingStar       ConditionKey = "shooting_star"
	MorningStar        ConditionKey = "morning_star"
	EveningStar        ConditionKey = "evening_star"
	ThreeWhiteSoldiers ConditionKey = "three_white_soldiers"
	ThreeBlackCrows    ConditionKey = "three_black_crows"
)

// Instrument-level conditions derived outside the indicator stage.
const (
	OIBullish ConditionKey = "oi_bullish"
	OIBearish ConditionKey = "oi_bearish"
)

// Key builds the per-timeframe identifier for a condition prefix.
func Key(prefix ConditionKey, tf Timeframe) string {
	return string(prefix) + "_" + string(tf)
}

// Numeric indicator keys
const (
	NumberOpenInterest = "open_interest"
)
