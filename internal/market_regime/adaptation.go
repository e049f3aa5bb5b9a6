package market_regime

import "github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/domain"

// EffectiveRequirements are a scenario's requirements after flat-market adaptation.
// MinQualityScore is 0 when the scenario declares no floor and none was imposed.
type EffectiveRequirements struct {
	Categories             map[string]int `json:"categories"`
	MinDirectionalStrength *float64       `json:"min_directional_strength,omitempty"`
	MinQualityScore        float64        `json:"min_quality_score"`
	Adapted                bool           `json:"adapted"`
}

// AdaptRequirements tightens a flat-sensitive scenario's requirements when the
// market is flat: every category minimum grows by CategoryIncrement and the
// quality floor becomes max(original, FlatMinQualityScore). It never loosens.
func AdaptRequirements(req domain.Requirements, cond MarketCondition, cfg Config) EffectiveRequirements {
	eff := EffectiveRequirements{
		Categories:             make(map[string]int, len(req.Categories)),
		MinDirectionalStrength: req.MinDirectionalStrength,
	}
	if req.MinQualityScore != nil {
		eff.MinQualityScore = *req.MinQualityScore
	}
	for name, n := range req.Categories {
		eff.Categories[name] = n
	}

	if !req.FlatMarketFilter || !cond.IsFlat {
		return eff
	}

	eff.Adapted = true
	if cfg.CategoryIncrement > 0 {
		for name := range eff.Categories {
			eff.Categories[name] += cfg.CategoryIncrement
		}
	}
	if cfg.FlatMinQualityScore > eff.MinQualityScore {
		eff.MinQualityScore = cfg.FlatMinQualityScore
	}

	return eff
}
