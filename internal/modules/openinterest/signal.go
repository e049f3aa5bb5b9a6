package openinterest

import (
	"github.com/rs/zerolog"

	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/domain"
)

// Buildup classifies the joint move of open interest and price
type Buildup string

const (
	LongBuildup    Buildup = "LONG_BUILDUP"
	ShortBuildup   Buildup = "SHORT_BUILDUP"
	ShortCovering  Buildup = "SHORT_COVERING"
	LongUnwinding  Buildup = "LONG_UNWINDING"
	NeutralBuildup Buildup = "NEUTRAL"
)

// Bullish reports whether the buildup supports the CALL side
func (b Buildup) Bullish() bool {
	return b == LongBuildup || b == ShortCovering
}

// Bearish reports whether the buildup supports the PUT side
func (b Buildup) Bearish() bool {
	return b == ShortBuildup || b == LongUnwinding
}

// Classify maps the open-interest and price changes to a buildup.
// Any flat component yields NEUTRAL.
func Classify(prevOI, currOI, priceChange float64) Buildup {
	oiChange := currOI - prevOI
	switch {
	case oiChange > 0 && priceChange > 0:
		return LongBuildup
	case oiChange > 0 && priceChange < 0:
		return ShortBuildup
	case oiChange < 0 && priceChange > 0:
		return ShortCovering
	case oiChange < 0 && priceChange < 0:
		return LongUnwinding
	default:
		return NeutralBuildup
	}
}

// Tracker turns successive ticks into oi_bullish / oi_bearish conditions
type Tracker struct {
	store Store
	log   zerolog.Logger
}

// NewTracker creates a tracker over an injected store
func NewTracker(store Store, log zerolog.Logger) *Tracker {
	return &Tracker{
		store: store,
		log:   log.With().Str("component", "oi_tracker").Logger(),
	}
}

// Enrich returns a copy of the snapshot with the open-interest conditions set
// and records the tick's reading. Both conditions are always published; they are
// false on an instrument's first tick or when the snapshot carries no open interest.
func (t *Tracker) Enrich(s domain.Snapshot) (domain.Snapshot, Buildup) {
	buildup := NeutralBuildup

	curr := Reading{
		OpenInterest: s.Number(domain.NumberOpenInterest),
		Price:        s.CurrentPrice(),
	}

	if curr.OpenInterest > 0 && s.Instrument != "" {
		if prev, ok := t.store.Get(s.Instrument); ok {
			buildup = Classify(prev.OpenInterest, curr.OpenInterest, curr.Price-prev.Price)
		}
		t.store.Set(s.Instrument, curr)
	}

	if buildup != NeutralBuildup {
		t.log.Debug().
			Str("instrument", s.Instrument).
			Str("buildup", string(buildup)).
			Float64("open_interest", curr.OpenInterest).
			Msg("Open interest buildup")
	}

	return s.WithBooleans(map[string]bool{
		string(domain.OIBullish): buildup.Bullish(),
		string(domain.OIBearish): buildup.Bearish(),
	}), buildup
}

// Reset drops all cached readings
func (t *Tracker) Reset() {
	t.store.Clear()
}
