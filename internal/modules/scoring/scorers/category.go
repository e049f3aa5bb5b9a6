package scorers

import (
	"sort"

	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/domain"
)

// CategoryConfig maps category names to boolean condition identifiers, separately
// for the CALL-leaning and PUT-leaning direction.
type CategoryConfig struct {
	Call map[string][]string `toml:"call" json:"call"`
	Put  map[string][]string `toml:"put" json:"put"`
}

// For returns the category map of one direction
func (c CategoryConfig) For(direction domain.Direction) map[string][]string {
	if direction == domain.DirectionPut {
		return c.Put
	}
	return c.Call
}

// Possible returns how many conditions a category has in the given direction
func (c CategoryConfig) Possible(direction domain.Direction, category string) int {
	return len(c.For(direction)[category])
}

// Identifiers returns every configured identifier, sorted and de-duplicated
func (c CategoryConfig) Identifiers() []string {
	seen := make(map[string]struct{})
	for _, set := range []map[string][]string{c.Call, c.Put} {
		for _, ids := range set {
			for _, id := range ids {
				seen[id] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// DefaultCategoryConfig returns the stock trend / futureAndVolume / candlestick /
// momentum categories.
func DefaultCategoryConfig() CategoryConfig {
	k := domain.Key
	return CategoryConfig{
		Call: map[string][]string{
			"trend": {
				k(domain.EMAFastAboveSlow, domain.Timeframe1Min),
				k(domain.EMAFastAboveSlow, domain.Timeframe5Min),
				k(domain.EMAFastAboveSlow, domain.Timeframe15Min),
				k(domain.PriceAboveVWAP, domain.Timeframe5Min),
				k(domain.PriceAboveVWAP, domain.Timeframe15Min),
			},
			"futureAndVolume": {
				k(domain.FutureBullish, domain.Timeframe1Min),
				k(domain.FutureBullish, domain.Timeframe5Min),
				k(domain.FutureBullish, domain.Timeframe15Min),
				k(domain.PriceAboveResistance, domain.Timeframe5Min),
				string(domain.OIBullish),
			},
			"candlestick": {
				k(domain.GreenCandle, domain.Timeframe5Min),
				k(domain.BullishEngulfing, domain.Timeframe5Min),
				k(domain.Hammer, domain.Timeframe5Min),
				k(domain.MorningStar, domain.Timeframe5Min),
				k(domain.ThreeWhiteSoldiers, domain.Timeframe5Min),
			},
			"momentum": {
				k(domain.RSIAboveThreshold, domain.Timeframe1Min),
				k(domain.RSIAboveThreshold, domain.Timeframe5Min),
				k(domain.RSIAboveThreshold, domain.Timeframe15Min),
				k(domain.MomentumBullish, domain.Timeframe5Min),
			},
		},
		Put: map[string][]string{
			"trend": {
				k(domain.EMAFastBelowSlow, domain.Timeframe1Min),
				k(domain.EMAFastBelowSlow, domain.Timeframe5Min),
				k(domain.EMAFastBelowSlow, domain.Timeframe15Min),
				k(domain.PriceBelowVWAP, domain.Timeframe5Min),
				k(domain.PriceBelowVWAP, domain.Timeframe15Min),
			},
			"futureAndVolume": {
				k(domain.FutureBearish, domain.Timeframe1Min),
				k(domain.FutureBearish, domain.Timeframe5Min),
				k(domain.FutureBearish, domain.Timeframe15Min),
				k(domain.PriceBelowSupport, domain.Timeframe5Min),
				string(domain.OIBearish),
			},
			"candlestick": {
				k(domain.RedCandle, domain.Timeframe5Min),
				k(domain.BearishEngulfing, domain.Timeframe5Min),
				k(domain.ShootingStar, domain.Timeframe5Min),
				k(domain.EveningStar, domain.Timeframe5Min),
				k(domain.ThreeBlackCrows, domain.Timeframe5Min),
			},
			"momentum": {
				k(domain.RSIBelowThreshold, domain.Timeframe1Min),
				k(domain.RSIBelowThreshold, domain.Timeframe5Min),
				k(domain.RSIBelowThreshold, domain.Timeframe15Min),
				k(domain.MomentumBearish, domain.Timeframe5Min),
			},
		},
	}
}

// CategoryScore is the per-direction category evidence of one snapshot
type CategoryScore struct {
	Call      domain.CategoryCounts `json:"call"`
	Put       domain.CategoryCounts `json:"put"`
	Selected  domain.CategoryCounts `json:"selected"`
	Direction domain.Direction      `json:"direction"`
	CallTotal int                   `json:"call_total"`
	PutTotal  int                   `json:"put_total"`
}

// CategoryScorer counts satisfied conditions per category and picks a direction
type CategoryScorer struct {
	cfg CategoryConfig
}

// NewCategoryScorer creates a new category scorer
func NewCategoryScorer(cfg CategoryConfig) *CategoryScorer {
	return &CategoryScorer{cfg: cfg}
}

// Config returns the category configuration
func (cs *CategoryScorer) Config() CategoryConfig {
	return cs.cfg
}

// Score counts both directions and selects the leaning one.
// CALL wins when the totals are equal.
func (cs *CategoryScorer) Score(s *domain.Snapshot) CategoryScore {
	call := CountCategories(cs.cfg.Call, s)
	put := CountCategories(cs.cfg.Put, s)

	result := CategoryScore{
		Call:      call,
		Put:       put,
		CallTotal: call.Total(),
		PutTotal:  put.Total(),
	}

	if result.CallTotal >= result.PutTotal {
		result.Direction = domain.DirectionCall
		result.Selected = call
	} else {
		result.Direction = domain.DirectionPut
		result.Selected = put
	}

	return result
}

// CountCategories counts true identifiers per category. Unknown identifiers are false.
func CountCategories(categories map[string][]string, s *domain.Snapshot) domain.CategoryCounts {
	counts := make(domain.CategoryCounts, len(categories))
	for name, ids := range categories {
		n := 0
		for _, id := range ids {
			if s.Bool(id) {
				n++
			}
		}
		counts[name] = n
	}
	return counts
}

// UnknownIdentifiers lists configured identifiers the snapshot does not publish
func UnknownIdentifiers(cfg CategoryConfig, s *domain.Snapshot) []string {
	var missing []string
	for _, id := range cfg.Identifiers() {
		if !s.HasBool(id) {
			missing = append(missing, id)
		}
	}
	return missing
}
